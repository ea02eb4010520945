package pybootstrap

import (
	"testing"
)

func TestLockExcludesSecondAcquire(t *testing.T) {
	dir := t.TempDir()

	first, err := acquireLock(dir)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := acquireLock(dir); err == nil {
		t.Error("second acquire should fail while the lock is held")
	}

	if err := first.release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	second, err := acquireLock(dir)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	second.release()
}

func TestLockReleaseIsIdempotent(t *testing.T) {
	lock, err := acquireLock(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := lock.release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := lock.release(); err != nil {
		t.Fatalf("second release should be a no-op, got: %v", err)
	}
}
