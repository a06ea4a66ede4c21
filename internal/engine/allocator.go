package engine

import "math/bits"

// Allocator supplies chain nodes and the buffers ops own.
//
// Every value handed out is returned exactly once through the matching Free
// call during batch teardown. Implementations need no locking: a Sequence
// and its allocator belong to one goroutine.
type Allocator interface {
	AllocNode() *Node
	FreeNode(n *Node)

	// AllocBytes returns a zeroed slice of length n. n == 0 returns nil.
	AllocBytes(n int) []byte
	FreeBytes(b []byte)

	// AllocFloats returns a zeroed slice of length n. n == 0 returns nil.
	AllocFloats(n int) []float64
	FreeFloats(f []float64)
}

// HeapAllocator allocates from the Go heap and leaves reclamation to the
// garbage collector. Free clears nodes so a stale pointer into a torn-down
// chain reads a nil Op instead of a live instruction.
type HeapAllocator struct{}

func (HeapAllocator) AllocNode() *Node { return &Node{} }

func (HeapAllocator) FreeNode(n *Node) { *n = Node{} }

func (HeapAllocator) AllocBytes(n int) []byte {
	if n == 0 {
		return nil
	}
	return make([]byte, n)
}

func (HeapAllocator) FreeBytes([]byte) {}

func (HeapAllocator) AllocFloats(n int) []float64 {
	if n == 0 {
		return nil
	}
	return make([]float64, n)
}

func (HeapAllocator) FreeFloats([]float64) {}

// maxPooledPerClass bounds each free list so one large batch does not pin
// its peak memory forever.
const maxPooledPerClass = 256

// PoolAllocator keeps free lists of nodes and of power-of-two sized
// buffers, so steady-state drawing reuses the previous batch's memory.
// Not safe for concurrent use.
type PoolAllocator struct {
	nodes  []*Node
	bytes  [bits.UintSize][][]byte
	floats [bits.UintSize][][]float64
}

// NewPoolAllocator returns an empty pool.
func NewPoolAllocator() *PoolAllocator {
	return &PoolAllocator{}
}

// AllocNode returns a zeroed node, reusing from the free list if available.
func (a *PoolAllocator) AllocNode() *Node {
	if count := len(a.nodes); count > 0 {
		n := a.nodes[count-1]
		a.nodes = a.nodes[:count-1]
		return n
	}
	return &Node{}
}

// FreeNode clears the node and returns it to the free list.
func (a *PoolAllocator) FreeNode(n *Node) {
	*n = Node{}
	if len(a.nodes) < maxPooledPerClass {
		a.nodes = append(a.nodes, n)
	}
}

func (a *PoolAllocator) AllocBytes(n int) []byte {
	if n == 0 {
		return nil
	}
	class := sizeClass(n)
	if list := a.bytes[class]; len(list) > 0 {
		b := list[len(list)-1]
		a.bytes[class] = list[:len(list)-1]
		b = b[:n]
		clear(b)
		return b
	}
	return make([]byte, n, 1<<class)
}

// FreeBytes pools b if its capacity is a size class. Slices that did not
// come from this pool are dropped.
func (a *PoolAllocator) FreeBytes(b []byte) {
	c := cap(b)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	class := sizeClass(c)
	if len(a.bytes[class]) < maxPooledPerClass {
		a.bytes[class] = append(a.bytes[class], b[:0])
	}
}

func (a *PoolAllocator) AllocFloats(n int) []float64 {
	if n == 0 {
		return nil
	}
	class := sizeClass(n)
	if list := a.floats[class]; len(list) > 0 {
		f := list[len(list)-1]
		a.floats[class] = list[:len(list)-1]
		f = f[:n]
		clear(f)
		return f
	}
	return make([]float64, n, 1<<class)
}

func (a *PoolAllocator) FreeFloats(f []float64) {
	c := cap(f)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	class := sizeClass(c)
	if len(a.floats[class]) < maxPooledPerClass {
		a.floats[class] = append(a.floats[class], f[:0])
	}
}

// Pooled reports how many nodes and buffers are waiting for reuse.
func (a *PoolAllocator) Pooled() (nodes, buffers int) {
	for _, l := range a.bytes {
		buffers += len(l)
	}
	for _, l := range a.floats {
		buffers += len(l)
	}
	return len(a.nodes), buffers
}

// sizeClass returns the smallest k with 1<<k >= n.
func sizeClass(n int) int {
	return bits.Len(uint(n - 1))
}
