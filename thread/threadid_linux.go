//go:build linux

package thread

import "golang.org/x/sys/unix"

// currentThreadID returns the kernel task id of the calling thread.
func currentThreadID() uint64 {
	return uint64(unix.Gettid())
}
