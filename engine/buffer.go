package engine

import (
	"bytes"
	"fmt"
)

// Buffer is a fixed-size text buffer owned by the foreign side. Content is
// NUL-terminated, as the call-in convention passes plain char pointers.
type Buffer struct {
	data  []byte
	free  func([]byte)
	freed bool
}

// NewBuffer wraps data as a buffer. free, if non-nil, is called exactly once
// by Free.
func NewBuffer(data []byte, free func([]byte)) *Buffer {
	if len(data) > 0 {
		data[0] = 0
	}
	return &Buffer{data: data, free: free}
}

// Cap returns the buffer size including the terminating NUL.
func (b *Buffer) Cap() int { return len(b.data) }

// Set copies v into the buffer, truncating to Cap()-1 bytes.
// It returns the number of bytes stored.
func (b *Buffer) Set(v []byte) int {
	if len(b.data) == 0 {
		return 0
	}
	n := copy(b.data[:len(b.data)-1], v)
	b.data[n] = 0
	return n
}

// SetString is Set for a string value.
func (b *Buffer) SetString(v string) int {
	if len(b.data) == 0 {
		return 0
	}
	n := copy(b.data[:len(b.data)-1], v)
	b.data[n] = 0
	return n
}

// Bytes returns the content up to the first NUL. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	if i := bytes.IndexByte(b.data, 0); i >= 0 {
		return b.data[:i]
	}
	return b.data
}

// String returns a copy of the content.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Raw returns the whole backing store for native adapters.
func (b *Buffer) Raw() []byte { return b.data }

// Free releases the buffer. It reports whether this call released it;
// later calls are no-ops.
func (b *Buffer) Free() bool {
	if b == nil || b.freed {
		return false
	}
	b.freed = true
	if b.free != nil {
		b.free(b.data)
	}
	b.data = nil
	return true
}

// Freed reports whether Free has been called.
func (b *Buffer) Freed() bool { return b.freed }

func errAllocFailed(size int) error {
	return fmt.Errorf("native allocation of %d bytes failed", size)
}
