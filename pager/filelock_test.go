package pager

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLockExcludesSecondOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.db")
	f1, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatalf("error opening db file: %s", err)
	}
	defer f1.Close()
	f2, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("error opening db file again: %s", err)
	}
	defer f2.Close()

	l1 := newPlatformLock(f1.Fd())
	if err := l1.Lock(); err != nil {
		t.Fatalf("first lock failed: %s", err)
	}
	l2 := newPlatformLock(f2.Fd())
	if err := l2.Lock(); err == nil {
		t.Fatal("second lock on the same file succeeded")
	}
	if err := l1.Unlock(); err != nil {
		t.Fatalf("unlock failed: %s", err)
	}
	if err := l2.Lock(); err != nil {
		t.Fatalf("lock after unlock failed: %s", err)
	}
	if err := l2.Unlock(); err != nil {
		t.Fatalf("unlock failed: %s", err)
	}
}

func TestFileStorageHoldsLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "owned.db")
	s1, err := newFileStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newFileStorage(path); err == nil {
		t.Fatal("second session opened a locked data file")
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}
	s2, err := newFileStorage(path)
	if err != nil {
		t.Fatalf("open after close failed: %s", err)
	}
	s2.Close()
}
