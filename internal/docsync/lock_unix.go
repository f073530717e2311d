//go:build unix

package docsync

import "syscall"

// isProcessRunning probes pid with signal 0, which checks existence without delivering anything
func isProcessRunning(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	switch err {
	case nil:
		return true
	case syscall.EPERM:
		// Exists, but owned by another user
		return true
	default:
		// ESRCH and anything unexpected
		return false
	}
}
