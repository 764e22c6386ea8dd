// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrClosed is the panic value of reads from a closed Buffer.
var ErrClosed = errors.New("secret: buffer is closed")

// Buffer is a fixed-size region of protected memory. It must not be
// copied. Reading a closed Buffer panics with ErrClosed.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// New maps size bytes of zeroed, locked memory.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(data)
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP): %w", err)
	}
	return &Buffer{data: data}, nil
}

// NewFromBytes moves source into a new Buffer. source is zeroed,
// including when an error is returned.
func NewFromBytes(source []byte) (*Buffer, error) {
	defer Zero(source)
	if len(source) == 0 {
		return nil, errors.New("secret: empty source")
	}
	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}
	copy(buffer.data, source)
	return buffer, nil
}

// Bytes returns the protected memory itself. The slice is invalid after
// Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic(ErrClosed)
	}
	return b.data
}

// String copies the secret onto the heap. Use it only where an API
// takes a string.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic(ErrClosed)
	}
	return string(b.data)
}

// Len is the size of the buffer. It is zero after Close.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Close zeroes, unlocks and unmaps the memory. Calling Close again is a
// no-op.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	Zero(b.data)

	var errs []error
	if err := unix.Munlock(b.data); err != nil {
		errs = append(errs, fmt.Errorf("secret: munlock: %w", err))
	}
	if err := unix.Munmap(b.data); err != nil {
		errs = append(errs, fmt.Errorf("secret: munmap: %w", err))
	}
	b.data = nil
	return errors.Join(errs...)
}

// Zero overwrites data with zeros.
func Zero(data []byte) {
	clear(data)
}
