package engine

import (
	"fmt"
	"sync"
)

// Pool limits to prevent memory bloat
const poolMaxIdle = Slots * 2

// HeapAllocator hands out Go-heap buffers for engines that live in-process.
// Full-size buffers are recycled.
type HeapAllocator struct {
	pool sync.Pool
	mu   sync.Mutex
	idle int
	live int
}

// NewHeapAllocator creates an allocator with an empty pool.
func NewHeapAllocator() *HeapAllocator {
	a := &HeapAllocator{}
	a.pool.New = func() any {
		buf := make([]byte, MaxValue)
		return &buf
	}
	return a
}

// Alloc returns a buffer of size bytes.
func (a *HeapAllocator) Alloc(size int) (*Buffer, error) {
	if size <= 0 || size > MaxValue {
		return nil, fmt.Errorf("buffer size %d out of range (1..%d)", size, MaxValue)
	}
	var data []byte
	if size == MaxValue {
		a.mu.Lock()
		if a.idle > 0 {
			a.idle--
		}
		a.mu.Unlock()
		data = *(a.pool.Get().(*[]byte))
	} else {
		data = make([]byte, size)
	}
	a.mu.Lock()
	a.live++
	a.mu.Unlock()
	return NewBuffer(data, a.put), nil
}

func (a *HeapAllocator) put(data []byte) {
	a.mu.Lock()
	a.live--
	keep := len(data) == MaxValue && a.idle < poolMaxIdle
	if keep {
		a.idle++
	}
	a.mu.Unlock()
	if keep {
		a.pool.Put(&data)
	}
}

// Live returns the number of buffers allocated and not yet freed.
func (a *HeapAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}
