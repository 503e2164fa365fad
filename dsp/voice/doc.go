// Package voice implements the per-voice mixing state machine.
//
// A [Voice] is shared by one control goroutine and the audio goroutine.
// The control side binds a [Buffer], publishes parameter snapshots and
// drives the lifecycle through atomic state; the audio side calls
// [Voice.Mix] once per block while the voice is eligible. Nothing on the
// audio side allocates, locks or blocks.
package voice
