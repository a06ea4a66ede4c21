package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drawseq/internal/engine"
)

func TestCountingAllocator_TracksLiveMemory(t *testing.T) {
	a := NewCountingAllocator()

	n := a.AllocNode()
	b := a.AllocBytes(4)
	f := a.AllocFloats(2)
	assert.Equal(t, 1, a.LiveNodes())
	assert.Equal(t, 2, a.LiveBuffers())
	assert.Equal(t, 3, a.Live())

	a.FreeNode(n)
	a.FreeBytes(b)
	a.FreeFloats(f)
	assert.Equal(t, 0, a.Live())
	assert.Empty(t, a.Faults())

	allocs, frees := a.Totals()
	assert.Equal(t, 3, allocs)
	assert.Equal(t, 3, frees)
}

func TestCountingAllocator_ZeroLengthIsNil(t *testing.T) {
	a := NewCountingAllocator()
	assert.Nil(t, a.AllocBytes(0))
	assert.Nil(t, a.AllocFloats(0))

	a.FreeBytes(nil)
	a.FreeFloats(nil)
	assert.Equal(t, 0, a.Live())
	assert.Empty(t, a.Faults())
}

func TestCountingAllocator_DoubleFreeIsFault(t *testing.T) {
	a := NewCountingAllocator()
	b := a.AllocBytes(8)
	a.FreeBytes(b)
	a.FreeBytes(b)

	faults := a.Faults()
	require.Len(t, faults, 1)
	assert.Contains(t, faults[0], "byte buffer")
}

func TestCountingAllocator_ForeignFreeIsFault(t *testing.T) {
	a := NewCountingAllocator()
	a.FreeFloats(make([]float64, 3))

	faults := a.Faults()
	require.Len(t, faults, 1)
	assert.Contains(t, faults[0], "float buffer")
}

func TestCountingAllocator_OverPool(t *testing.T) {
	pool := engine.NewPoolAllocator()
	a := NewCountingAllocatorOver(pool)

	n := a.AllocNode()
	b := a.AllocBytes(5)
	a.FreeNode(n)
	a.FreeBytes(b)
	nodes, buffers := pool.Pooled()
	assert.Equal(t, 1, nodes)
	assert.Equal(t, 1, buffers)

	again := a.AllocNode()
	assert.Same(t, n, again, "freed node is reused by the pool")
	a.FreeNode(again)

	a.FreeNode(again)
	require.Len(t, a.Faults(), 1, "double free is caught before reaching the pool")
	nodes, _ = pool.Pooled()
	assert.Equal(t, 1, nodes)
}
