// Package tables locates manipulation targets inside the client's shared
// binary configuration tables. The tables themselves live in host memory and
// are reached through the Memory interface.
package tables

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Table errors.
var (
	ErrNoTable      = errors.New("no table for manipulation")
	ErrOutOfRange   = errors.New("table offset out of range")
	ErrNotAvailable = errors.New("table not loaded")
)

// Memory is one table as the host exposes it.
type Memory interface {
	io.ReaderAt
	io.WriterAt
	Size() int64
}

// ByteMemory is a Memory backed by a byte slice. Reads and writes are
// serialized so tests can share one table across goroutines.
type ByteMemory struct {
	mu  sync.RWMutex
	buf []byte
}

// NewByteMemory returns a zeroed table of size bytes.
func NewByteMemory(size int) *ByteMemory {
	return &ByteMemory{buf: make([]byte, size)}
}

// FromBytes wraps a copy of b.
func FromBytes(b []byte) *ByteMemory {
	return &ByteMemory{buf: append([]byte(nil), b...)}
}

// Size returns the table length in bytes.
func (m *ByteMemory) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.buf))
}

// ReadAt implements io.ReaderAt.
func (m *ByteMemory) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if off < 0 || off > int64(len(m.buf)) {
		return 0, fmt.Errorf("read at %d: %w", off, ErrOutOfRange)
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Writes past the end fail without writing.
func (m *ByteMemory) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, fmt.Errorf("write %d bytes at %d: %w", len(p), off, ErrOutOfRange)
	}
	return copy(m.buf[off:], p), nil
}

// Bytes returns a copy of the table contents.
func (m *ByteMemory) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.buf...)
}
