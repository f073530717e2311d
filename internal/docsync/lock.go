package docsync

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultLockTimeout   = 5 * time.Second
	defaultLockRetryWait = 500 * time.Millisecond
)

// errLockHeld reports a lock file owned by another running process
var errLockHeld = errors.New("lock held by running process")

// pidLock is an inter-process lock: a file holding the owner's PID.
// A lock whose owner is no longer running is treated as stale and removed.
type pidLock struct {
	path      string
	timeout   time.Duration
	retryWait time.Duration
}

func newPIDLock(path string) *pidLock {
	return &pidLock{
		path:      path,
		timeout:   defaultLockTimeout,
		retryWait: defaultLockRetryWait,
	}
}

// isProcessRunning is implemented in platform-specific files:
// - lock_unix.go for Unix/Linux/macOS
// - lock_windows.go for Windows

// owner returns the PID recorded in the lock file, or 0 when there is none
func (l *pidLock) owner() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return -1, nil
	}
	return pid, nil
}

// cleanStale removes the lock file if its owner is dead or it is corrupted
func (l *pidLock) cleanStale() error {
	pid, err := l.owner()
	if err != nil {
		return err
	}

	switch {
	case pid == 0:
		return nil
	case pid < 0:
		if l.beingWritten() {
			return fmt.Errorf("%w: lock file is still being written", errLockHeld)
		}
		log.Printf("Warning: Corrupted lock file (invalid PID), removing...")
	case isProcessRunning(pid):
		return fmt.Errorf("%w %d", errLockHeld, pid)
	default:
		log.Printf("Stale lock detected (PID %d not running), cleaning...", pid)
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale lock: %w", err)
	}
	return nil
}

// beingWritten reports an empty lock file younger than one retry wait. create
// leaves the file empty between the exclusive open and the PID write.
func (l *pidLock) beingWritten() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		return false
	}
	return info.Size() == 0 && time.Since(info.ModTime()) < l.retryWait
}

// acquire takes the lock, waiting up to the timeout for another process to release it
func (l *pidLock) acquire() error {
	ourPID := os.Getpid()

	if pid, err := l.owner(); err == nil && pid == ourPID {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	start := time.Now()
	for {
		err := l.cleanStale()
		if err == nil {
			err = l.create(ourPID)
			if err == nil {
				log.Printf("✓ Doc sync lock acquired (PID %d)", ourPID)
				return nil
			}
		}
		if !errors.Is(err, errLockHeld) && !errors.Is(err, os.ErrExist) {
			return err
		}

		elapsed := time.Since(start)
		if elapsed >= l.timeout {
			return fmt.Errorf("timeout waiting for doc sync lock after %v: %w", elapsed.Round(time.Millisecond), err)
		}
		log.Printf("Doc sync locked by another process, waiting... (%v elapsed)", elapsed.Round(100*time.Millisecond))
		time.Sleep(l.retryWait)
	}
}

// create writes the lock file, failing with os.ErrExist if another process won the race
func (l *pidLock) create(pid int) error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return os.ErrExist
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	_, werr := f.WriteString(strconv.Itoa(pid))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(l.path)
		return fmt.Errorf("failed to write lock file: %w", errors.Join(werr, cerr))
	}
	return nil
}

// release removes the lock file if this process owns it
func (l *pidLock) release() error {
	pid, err := l.owner()
	if err != nil {
		return err
	}
	if pid == 0 {
		return nil
	}
	if pid != os.Getpid() {
		log.Printf("Warning: Lock file contains different PID (%d vs %d), not removing", pid, os.Getpid())
		return nil
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
