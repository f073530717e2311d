//go:build windows

package docsync

import "syscall"

// isProcessRunning reports whether a handle to pid can be opened.
// FindProcess alone succeeds for unknown PIDs on Windows.
func isProcessRunning(pid int) bool {
	const da = syscall.STANDARD_RIGHTS_READ | syscall.PROCESS_QUERY_INFORMATION | syscall.SYNCHRONIZE

	h, err := syscall.OpenProcess(da, false, uint32(pid))
	if err != nil {
		return false
	}
	syscall.CloseHandle(h)
	return true
}
