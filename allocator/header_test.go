package allocator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocatorHeaderRoundTrip(t *testing.T) {
	mem := make([]byte, allocatorHeaderSize+100)
	writeMemorySize(mem, 100)
	writeMode(mem, BestFit)
	writeFreeHead(mem, 42)

	require.Equal(t, int64(100), readMemorySize(mem))
	require.Equal(t, BestFit, readMode(mem))
	require.Equal(t, int64(42), readFreeHead(mem))
}

func TestFreeBlockRoundTrip(t *testing.T) {
	mem := make([]byte, allocatorHeaderSize+100)
	writeFreeAt(mem, 0, 64, 16)

	require.Equal(t, int64(64), freeSizeAt(mem, 0))
	require.Equal(t, int64(16), freeNextAt(mem, 0))

	setFreeNextAt(mem, 0, nullOffset)
	require.Equal(t, nullOffset, freeNextAt(mem, 0))
	require.Equal(t, int64(64), freeSizeAt(mem, 0), "setFreeNextAt must not disturb the size word")
}

func TestOccupiedBlockUnflagged(t *testing.T) {
	mem := make([]byte, allocatorHeaderSize+100)
	writeOccupiedAt(mem, 0, 72, false)
	require.Equal(t, int64(72), occupiedSizeAt(mem, 0, false))
}

func TestOccupiedBlockFlaggedMasksLowBit(t *testing.T) {
	mem := make([]byte, allocatorHeaderSize+100)
	writeOccupiedAt(mem, 0, 72, true)

	require.True(t, isAllocatedAt(mem, 0))
	require.Equal(t, int64(72), occupiedSizeAt(mem, 0, true))

	clearAllocatedAt(mem, 0)
	require.False(t, isAllocatedAt(mem, 0))
	require.Equal(t, int64(72), occupiedSizeAt(mem, 0, true))
}

func TestRoundEven(t *testing.T) {
	require.Equal(t, int64(8), roundEven(8))
	require.Equal(t, int64(8), roundEven(7))
	require.Equal(t, int64(0), roundEven(0))
	require.Equal(t, int64(10002), roundEven(10001))
}

func TestAbsoluteOffsetsPayloadFromHeaderEnd(t *testing.T) {
	require.Equal(t, allocatorHeaderSize, absolute(0))
	require.Equal(t, allocatorHeaderSize+8, absolute(8))
}
