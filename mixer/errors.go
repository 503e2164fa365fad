package mixer

import (
	"errors"

	"github.com/cwbudde/algo-spatialmix/dsp/effects"
)

var (
	// ErrNoFreeVoice is returned by Play when every voice is in use.
	ErrNoFreeVoice = errors.New("mixer: no free voice")
	// ErrNoFreeSlot is returned when the effect slot table is full.
	ErrNoFreeSlot = errors.New("mixer: no free effect slot")
	// ErrSlotInUse is returned when deleting a slot a source still sends to.
	ErrSlotInUse = errors.New("mixer: effect slot in use")
	// ErrUnknownSlot is returned for deleted or foreign slots.
	ErrUnknownSlot = errors.New("mixer: unknown effect slot")
	// ErrClosed is returned by operations on a closed context.
	ErrClosed = errors.New("mixer: context closed")

	// ErrUnknownEffect and ErrInvalidValue are shared with the effects
	// package so callers can match either.
	ErrUnknownEffect = effects.ErrUnknownEffect
	ErrInvalidValue  = effects.ErrInvalidValue
)
