package pybootstrap

import (
	"fmt"
	"os"
	"path/filepath"
)

// lockFileName sits next to the venv directory, not inside it, so the lock
// survives venv recreation with --clear.
const lockFileName = ".pybootstrap.lock"

// dirLock is an advisory lock guarding a bootstrap run against a concurrent
// run over the same directory.
type dirLock struct {
	file *os.File
}

// acquireLock takes an exclusive, non-blocking advisory lock for the given
// directory. It fails immediately if another bootstrap holds the lock.
func acquireLock(dir string) (*dirLock, error) {
	path := filepath.Join(dir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening lock file: %v", err)
	}
	if err := flockExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("another bootstrap is already running in %s: %v", dir, err)
	}
	return &dirLock{file: f}, nil
}

// release drops the lock. The lock file itself is left in place.
func (l *dirLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := funlock(l.file)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}
