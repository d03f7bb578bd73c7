package allocator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoubleSystemRoundsOddRegionUpToEven(t *testing.T) {
	d, err := NewDoubleSystem(10001, nil, nil, FirstFit)
	require.NoError(t, err)
	defer d.Destroy()

	require.Equal(t, 10002, d.MemorySize(), "odd region size must round up to the next even value")
}

func TestDoubleSystemAllocateRoundsOddRequestUpToEven(t *testing.T) {
	d, err := NewDoubleSystem(10000, nil, nil, FirstFit)
	require.NoError(t, err)
	defer d.Destroy()

	// A 7-byte request must still leave the allocated-bit/size-parity
	// invariant intact: the occupied block's stored size, once masked,
	// decodes to an even number.
	p, err := d.Allocate(7)
	require.NoError(t, err)
	require.Len(t, p, 7)

	off, ok := blockBase(d.mem, p)
	require.True(t, ok)
	size := occupiedSizeAt(d.mem, off, true)
	require.Zero(t, size%2, "occupied block size must stay even once the allocated bit is masked off")
	require.True(t, isAllocatedAt(d.mem, off))
}

func TestDoubleSystemDeallocateCoalescesNonAdjacentScan(t *testing.T) {
	d, err := NewDoubleSystem(10000, nil, nil, FirstFit)
	require.NoError(t, err)
	defer d.Destroy()

	p1, err := d.Allocate(1000)
	require.NoError(t, err)
	p2, err := d.Allocate(2000)
	require.NoError(t, err)
	require.NotNil(t, p2)

	d.Deallocate(p1)

	blocks := walkPhysical(t, d.mem, true, false)
	requireCoverage(t, blocks, int64(d.MemorySize()))
	requireNoAdjacentFree(t, blocks)
	requireFreeListSound(t, d.mem, int64(d.MemorySize()))
}

func TestDoubleSystemReallocatePreservesPrefix(t *testing.T) {
	d, err := NewDoubleSystem(10000, nil, nil, FirstFit)
	require.NoError(t, err)
	defer d.Destroy()

	p1, err := d.Allocate(1000)
	require.NoError(t, err)
	for i := range p1 {
		p1[i] = byte(i * 3)
	}

	p2, err := d.Reallocate(p1, 2000)
	require.NoError(t, err)
	require.Len(t, p2, 2000)
	for i := 0; i < 1000; i++ {
		require.Equal(t, byte(i*3), p2[i])
	}

	blocks := walkPhysical(t, d.mem, true, false)
	requireCoverage(t, blocks, int64(d.MemorySize()))
	requireNoAdjacentFree(t, blocks)
}

func TestDoubleSystemOOMBoundary(t *testing.T) {
	d, err := NewDoubleSystem(10000, nil, nil, FirstFit)
	require.NoError(t, err)
	defer d.Destroy()

	_, err = d.Allocate(10000 - occupiedHeaderSize)
	require.NoError(t, err)

	_, err = d.Allocate(1)
	require.Error(t, err)
}

func TestDoubleSystemDeallocateInvalidPointerIsIgnored(t *testing.T) {
	d, err := NewDoubleSystem(1000, nil, nil, FirstFit)
	require.NoError(t, err)
	defer d.Destroy()

	foreign := make([]byte, 4)
	require.NotPanics(t, func() { d.Deallocate(foreign) })
}

func TestDoubleSystemMixedWorkloadStaysSound(t *testing.T) {
	d, err := NewDoubleSystem(20000, nil, nil, BestFit)
	require.NoError(t, err)
	defer d.Destroy()

	var live [][]byte
	sizes := []int{65, 127, 255, 33, 513, 17, 1023}
	for _, s := range sizes {
		p, err := d.Allocate(s)
		require.NoError(t, err)
		live = append(live, p)
	}
	for i := 0; i < len(live); i += 2 {
		d.Deallocate(live[i])
	}

	blocks := walkPhysical(t, d.mem, true, false)
	requireCoverage(t, blocks, int64(d.MemorySize()))
	requireNoAdjacentFree(t, blocks)
	requireFreeListSound(t, d.mem, int64(d.MemorySize()))
}
