// Package device drives a mixer from an output: an offline renderer that
// pulls blocks into memory and a real-time player on top of oto.
//
// The audio side of a renderer runs on whatever goroutine calls Process:
// the caller of [Offline.Advance] offline, or oto's reader goroutine in
// real time.
package device
