// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var errLocked = errors.New("lock held elsewhere")

// fileLock is an exclusive flock(2) on a lock file. The lock belongs
// to the open file description, so two opens of the same path in one
// process exclude each other just as two processes do.
type fileLock struct {
	file *os.File
}

// lockFile opens (creating if needed) and locks path. A non-blocking
// attempt on a held lock returns errLocked.
func lockFile(path string, blocking bool) (*fileLock, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	how := unix.LOCK_EX
	if !blocking {
		how |= unix.LOCK_NB
	}
	for {
		err = unix.Flock(int(file.Fd()), how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errLocked
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return &fileLock{file: file}, nil
}

// Unlock releases the lock and closes the file.
func (l *fileLock) Unlock() error {
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return fmt.Errorf("unlocking %s: %w", l.file.Name(), unlockErr)
	}
	return closeErr
}
