// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"sync"
)

// Allocator supplies plain memory for surface storage.
type Allocator interface {
	// Alloc returns size bytes, cleared when zero is set.
	Alloc(size int, zero bool) ([]byte, error)

	// Realloc resizes buf, keeping its leading bytes.
	Realloc(buf []byte, size int) ([]byte, error)

	// Free returns buf to the allocator. buf must not be used afterwards.
	Free(buf []byte)
}

// MaxAlloc is the largest single allocation the heap allocator serves.
const MaxAlloc = 1 << 30

// heapAllocator recycles freed buffers by size through sync.Pool.
type heapAllocator struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

func (a *heapAllocator) pool(size int) *sync.Pool {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pools[size]
	if !ok {
		p = &sync.Pool{}
		a.pools[size] = p
	}
	return p
}

func (a *heapAllocator) Alloc(size int, zero bool) ([]byte, error) {
	if size <= 0 || size > MaxAlloc {
		return nil, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, size)
	}
	if v := a.pool(size).Get(); v != nil {
		buf := *(v.(*[]byte))
		if zero {
			clear(buf)
		}
		return buf, nil
	}
	return make([]byte, size), nil
}

func (a *heapAllocator) Realloc(buf []byte, size int) ([]byte, error) {
	if size <= len(buf) && size > 0 {
		return buf[:size], nil
	}
	out, err := a.Alloc(size, true)
	if err != nil {
		return nil, err
	}
	copy(out, buf)
	a.Free(buf)
	return out, nil
}

func (a *heapAllocator) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	a.pool(len(buf)).Put(&buf)
}

var (
	allocMu      sync.Mutex
	defaultAlloc *heapAllocator
)

// DefaultAllocator returns the process-wide heap allocator, creating it on
// first use.
func DefaultAllocator() Allocator {
	allocMu.Lock()
	defer allocMu.Unlock()
	if defaultAlloc == nil {
		defaultAlloc = &heapAllocator{pools: make(map[int]*sync.Pool)}
	}
	return defaultAlloc
}
