package effects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-spatialmix/dsp/pan"
)

// MaxEffectChannels is the number of slot input channels (first-order
// B-Format).
const MaxEffectChannels = pan.MaxFirstOrderCoeffs

var (
	// ErrUnknownEffect is returned for effect types without a factory.
	ErrUnknownEffect = errors.New("effects: unknown effect type")
	// ErrInvalidValue wraps every property range violation.
	ErrInvalidValue = errors.New("effects: invalid property value")
)

// Type identifies an effect algorithm.
type Type int

const (
	TypeNull Type = iota
	TypeEcho
	TypeRingModulator
	TypeDedicatedLowFrequency
	TypeDedicatedDialogue
)

var typeNames = [...]string{
	TypeNull:                  "null",
	TypeEcho:                  "echo",
	TypeRingModulator:         "ringmod",
	TypeDedicatedLowFrequency: "lfe",
	TypeDedicatedDialogue:     "dialogue",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType returns the Type with the given name.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return Type(t), nil
		}
	}
	return TypeNull, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
}

// Device is what an effect unit knows about the output device.
type Device struct {
	SampleRate float64

	// Dry pans onto the main mix buffer.
	Dry pan.MixParams
	// RealOut is the physical channel layout.
	RealOut *pan.Layout
}

// NewDevice describes a device that mixes directly onto layout.
func NewDevice(sampleRate float64, layout *pan.Layout) *Device {
	return &Device{
		SampleRate: sampleRate,
		Dry:        layout.MixParams(),
		RealOut:    layout,
	}
}

// SlotParams are the slot-level settings applied on top of the effect.
type SlotParams struct {
	// Type is the slot's effect type, which [Dedicated] uses to pick its
	// routing.
	Type Type
	// Gain scales the unit output.
	Gain float64
}

// State is an effect unit.
type State interface {
	// DeviceUpdate prepares the unit for dev. Control goroutine only.
	DeviceUpdate(dev *Device)
	// Update recomputes derived constants. It does not allocate.
	Update(dev *Device, slot SlotParams, props *Props)
	// Process adds the effect of n frames of in to out. len(out) is the
	// output channel count of the target returned by Output.
	Process(n int, in, out [][]float64)
	// Output reports which device buffer set Process writes.
	Output() pan.Output

	sealed()
}

// Factory constructs a unit in its cleared state.
type Factory func() State

// Registry maps effect types to factories.
type Registry struct {
	factories map[Type]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Type]Factory)}
}

// Register adds a factory for t.
func (r *Registry) Register(t Type, f Factory) error {
	if f == nil {
		return errors.New("effects: nil factory")
	}
	if _, ok := r.factories[t]; ok {
		return fmt.Errorf("effects: duplicate factory for %v", t)
	}
	r.factories[t] = f
	return nil
}

// New constructs a unit of type t.
func (r *Registry) New(t Type) (State, error) {
	f, ok := r.factories[t]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownEffect, t)
	}
	return f(), nil
}

// Types lists the registered types.
func (r *Registry) Types() []Type {
	out := make([]Type, 0, len(r.factories))
	for t := range typeNames {
		if _, ok := r.factories[Type(t)]; ok {
			out = append(out, Type(t))
		}
	}
	return out
}

// DefaultRegistry returns a registry with every built-in unit.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(TypeNull, func() State { return &Null{} })
	_ = r.Register(TypeEcho, func() State { return NewEcho() })
	_ = r.Register(TypeRingModulator, func() State { return NewRingModulator() })
	_ = r.Register(TypeDedicatedLowFrequency, func() State { return NewDedicated() })
	_ = r.Register(TypeDedicatedDialogue, func() State { return NewDedicated() })
	return r
}

// Null is the unit of a slot without an effect. It produces no output.
type Null struct{}

func (*Null) DeviceUpdate(*Device)                  {}
func (*Null) Update(*Device, SlotParams, *Props)    {}
func (*Null) Process(int, [][]float64, [][]float64) {}
func (*Null) Output() pan.Output                    { return pan.OutputDry }
func (*Null) sealed()                               {}
