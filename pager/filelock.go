package pager

import (
	"fmt"
	"runtime"
	"syscall"
)

// lock guards the data file so exactly one session owns it. Lock fails
// immediately when another process already holds the file.
type lock interface {
	Lock() error
	Unlock() error
}

// newPlatformLock returns a lock implementation for the detected platform.
func newPlatformLock(fd uintptr) lock {
	if !(runtime.GOOS == "linux" || runtime.GOOS == "darwin") {
		panic(fmt.Sprintf("file lock does not support %s", runtime.GOOS))
	}
	return &linuxOrDarwinLock{fileDescriptor: int(fd)}
}

// linuxOrDarwinLock is an advisory whole file lock. Being advisory means only
// processes built to respect advisory locks will be prevented from accessing
// the file out of turn.
type linuxOrDarwinLock struct {
	fileDescriptor int
}

func (l *linuxOrDarwinLock) Lock() error {
	err := syscall.Flock(
		l.fileDescriptor,
		syscall.LOCK_EX|syscall.LOCK_NB,
	)
	if err != nil {
		return fmt.Errorf("err LOCK_EX file: %w", err)
	}
	return nil
}

func (l *linuxOrDarwinLock) Unlock() error {
	if err := syscall.Flock(
		l.fileDescriptor,
		syscall.LOCK_UN,
	); err != nil {
		return fmt.Errorf("err Unlock LOCK_UN file: %w", err)
	}
	return nil
}
