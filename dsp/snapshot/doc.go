// Package snapshot carries mixing parameters from control goroutines to the
// audio goroutine without locks.
//
// Parameter records live in a [Pool]: a chunked arena addressed by
// generational [Handle]s, with a lock-free free list so the audio side can
// retire records without allocating or blocking. A [Cell] is the single-slot
// exchange between one producer and the audio side: publishing replaces any
// record not yet consumed (latest write wins) and the producer recycles the
// record it displaced.
//
// The usual flow:
//
//	h, s, grew, err := pool.Acquire()  // control side
//	*s = buildSnapshot()
//	if old := cell.Publish(h); old != 0 {
//		pool.Release(old)
//	}
//
//	if h := cell.Take(); h != 0 {      // audio side, once per block
//		pool.Release(current)
//		current = h
//	}
package snapshot
