// Storage provides an interface for accessing the filesystem. This allows the
// database to run on an in memory buffer if desired.
package pager

import (
	"fmt"
	"io"
	"os"
)

type storage interface {
	io.ReaderAt
	io.WriterAt
	// Append writes p at the current end of the file and returns the offset
	// the append began at.
	Append(p []byte) (int64, error)
	Size() (int64, error)
	Sync() error
	Close() error
}

type memoryStorage struct {
	buf []byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{}
}

func (m *memoryStorage) WriteAt(p []byte, off int64) (int, error) {
	for len(m.buf) < int(off)+len(p) {
		m.buf = append(m.buf, 0)
	}
	copy(m.buf[off:int(off)+len(p)], p)
	return len(p), nil
}

func (m *memoryStorage) ReadAt(p []byte, off int64) (int, error) {
	if int(off)+len(p) > len(m.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	copy(p, m.buf[off:int(off)+len(p)])
	return len(p), nil
}

func (m *memoryStorage) Append(p []byte) (int64, error) {
	off := int64(len(m.buf))
	m.buf = append(m.buf, p...)
	return off, nil
}

func (m *memoryStorage) Size() (int64, error) {
	return int64(len(m.buf)), nil
}

func (m *memoryStorage) Sync() error {
	return nil
}

func (m *memoryStorage) Close() error {
	return nil
}

// fileStorage owns the data file for the session. The advisory lock taken on
// open keeps a second process from opening the same file.
type fileStorage struct {
	file *os.File
	lock lock
}

func newFileStorage(filename string) (*fileStorage, error) {
	fl, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening db file: %w", err)
	}
	l := newPlatformLock(fl.Fd())
	if err := l.Lock(); err != nil {
		fl.Close()
		return nil, fmt.Errorf("error locking db file: %w", err)
	}
	return &fileStorage{file: fl, lock: l}, nil
}

func (s *fileStorage) WriteAt(p []byte, off int64) (int, error) {
	return s.file.WriteAt(p, off)
}

func (s *fileStorage) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *fileStorage) Append(p []byte) (int64, error) {
	off, err := s.Size()
	if err != nil {
		return 0, err
	}
	if _, err := s.file.WriteAt(p, off); err != nil {
		return 0, err
	}
	return off, nil
}

func (s *fileStorage) Size() (int64, error) {
	st, err := s.file.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

func (s *fileStorage) Sync() error {
	return s.file.Sync()
}

func (s *fileStorage) Close() error {
	if err := s.lock.Unlock(); err != nil {
		return err
	}
	return s.file.Close()
}
