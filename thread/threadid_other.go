//go:build !linux && !windows

package thread

import "golang.org/x/sys/unix"

// currentThreadID returns the process id as a stand-in on platforms
// without a portable thread id syscall (the value is diagnostic only).
func currentThreadID() uint64 {
	return uint64(unix.Getpid())
}
