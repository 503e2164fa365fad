// Package scene runs Lua scripts that automate a mixer from a control
// goroutine.
//
// A script creates named sources and effect slots, changes their
// properties and advances time with wait. Offline, wait renders audio;
// in real time it sleeps while the output device plays.
//
//	source("rain", "ambience/rain.ogg", true)
//	echo("hall", 0.1, 0.05, 0.5, 0.4, -1)
//	send("rain", "hall", 0.8)
//	direction("rain", -30, 0)
//	play("rain")
//	wait(2000)
//	gain("rain", 0.2)
//	wait(1000)
//
// Sources: source, tone, play, pause, stop, rewind, remove, gain, gaindb,
// pitch, direction, stereo, looping, resampler, direct, filter, offset,
// position, state.
//
// Slots are created on first use: effect, echo, ringmod, dedicated,
// slotgain, dropslot. send routes a source into a slot.
//
// Timing: wait, time, batch. batch applies every change made inside its
// function at the same block.
//
// Angles in scripts are in degrees; times are in milliseconds except for
// effect parameters and offsets, which use seconds.
package scene
