// Package goid resolves the identity of the calling goroutine.
//
// Reentrant locks need a stable per-caller identity to track the holder's
// acquisition count. The runtime does not expose goroutine ids, so the id
// is parsed from the header line of the goroutine's stack trace
// ("goroutine 18 [running]:"). The parse touches a fixed-size stack
// buffer and no allocation beyond it; it is only on the reentrant lock
// path, never on plain locks.
package goid

import (
	"runtime"
)

// Current returns the id of the calling goroutine.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// Skip "goroutine " prefix, then read digits up to the next space.
	const prefix = len("goroutine ")
	var id uint64
	for i := prefix; i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
