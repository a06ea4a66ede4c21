package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/drawseq/internal/engine"
)

// CountingAllocator hands out memory from an inner allocator and tracks
// every node and buffer that has not been freed. Freeing something twice, or freeing something it
// never handed out, is recorded as a fault instead of panicking so a test
// can report every problem at once.
//
// Thread-safety: safe for concurrent use, although a Sequence never needs it.
type CountingAllocator struct {
	inner  engine.Allocator
	mu     sync.Mutex
	nodes  map[*engine.Node]struct{}
	bytes  map[*byte]struct{}
	floats map[*float64]struct{}
	faults []string

	allocs, frees int
}

var _ engine.Allocator = (*CountingAllocator)(nil)

// NewCountingAllocator returns a counting allocator over the heap.
func NewCountingAllocator() *CountingAllocator {
	return NewCountingAllocatorOver(engine.HeapAllocator{})
}

// NewCountingAllocatorOver counts allocations served by inner. Only values
// that pass the fault checks are handed back to inner.
func NewCountingAllocatorOver(inner engine.Allocator) *CountingAllocator {
	return &CountingAllocator{
		inner:  inner,
		nodes:  make(map[*engine.Node]struct{}),
		bytes:  make(map[*byte]struct{}),
		floats: make(map[*float64]struct{}),
	}
}

func (a *CountingAllocator) AllocNode() *engine.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.inner.AllocNode()
	a.nodes[n] = struct{}{}
	a.allocs++
	return n
}

func (a *CountingAllocator) FreeNode(n *engine.Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.nodes[n]; !ok {
		a.faults = append(a.faults, fmt.Sprintf("free of unknown or already freed node %p", n))
		return
	}
	delete(a.nodes, n)
	a.inner.FreeNode(n)
	a.frees++
}

func (a *CountingAllocator) AllocBytes(n int) []byte {
	if n == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.inner.AllocBytes(n)
	a.bytes[&b[0]] = struct{}{}
	a.allocs++
	return b
}

func (a *CountingAllocator) FreeBytes(b []byte) {
	if cap(b) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	key := &b[:1][0]
	if _, ok := a.bytes[key]; !ok {
		a.faults = append(a.faults, fmt.Sprintf("free of unknown or already freed byte buffer %p", key))
		return
	}
	delete(a.bytes, key)
	a.inner.FreeBytes(b)
	a.frees++
}

func (a *CountingAllocator) AllocFloats(n int) []float64 {
	if n == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	f := a.inner.AllocFloats(n)
	a.floats[&f[0]] = struct{}{}
	a.allocs++
	return f
}

func (a *CountingAllocator) FreeFloats(f []float64) {
	if cap(f) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	key := &f[:1][0]
	if _, ok := a.floats[key]; !ok {
		a.faults = append(a.faults, fmt.Sprintf("free of unknown or already freed float buffer %p", key))
		return
	}
	delete(a.floats, key)
	a.inner.FreeFloats(f)
	a.frees++
}

// LiveNodes returns how many nodes are allocated and not yet freed.
func (a *CountingAllocator) LiveNodes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.nodes)
}

// LiveBuffers returns how many byte and float buffers are outstanding.
func (a *CountingAllocator) LiveBuffers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bytes) + len(a.floats)
}

// Live returns LiveNodes plus LiveBuffers.
func (a *CountingAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.nodes) + len(a.bytes) + len(a.floats)
}

// Totals returns lifetime allocation and free counts.
func (a *CountingAllocator) Totals() (allocs, frees int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs, a.frees
}

// Faults returns descriptions of every double or foreign free.
func (a *CountingAllocator) Faults() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.faults...)
}
