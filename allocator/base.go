package allocator

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/Pashen56/Allocator/logging"
	"github.com/Pashen56/Allocator/outer"
)

// Base is the "sorted free list" variant: deallocation recovers a block's
// neighbors by pointer-boundary arithmetic against an address-sorted free
// list, rather than by consulting a per-block allocated flag.
type Base struct {
	mem    []byte
	outer  outer.Allocator
	logger logging.Logger
}

const baseTypeName = "Base"

// NewBase constructs a Base allocator managing m bytes of payload, backed by
// outerAlloc (or the OS general allocator if nil), logging through log (if
// non-nil), with the given initial fit mode.
func NewBase(m int, outerAlloc outer.Allocator, log logging.Logger, mode Mode) (*Base, error) {
	if log != nil {
		log.Trace(baseTypeName + " allocator instance construction started").
			Debug(fmt.Sprintf("requested memory size: %d bytes", m))
	}

	if int64(m) < freeHeaderSize {
		msg := fmt.Sprintf("trusted memory size must be at least %d bytes", freeHeaderSize)
		if log != nil {
			log.Error(msg)
		}
		return nil, memoryError("NewBase", msg)
	}

	o := resolveOuter(outerAlloc)
	mem, err := o.Alloc(allocatorHeaderSize + m)
	if err != nil {
		msg := "outer allocator failed to provide trusted memory: " + err.Error()
		if log != nil {
			log.Error(msg)
		}
		return nil, memoryError("NewBase", msg)
	}

	writeMemorySize(mem, int64(m))
	writeMode(mem, mode)
	writeFreeHead(mem, 0)
	writeFreeAt(mem, 0, int64(m), nullOffset)

	if log != nil {
		log.Trace(baseTypeName + " allocator instance construction finished")
	}

	return &Base{mem: mem, outer: outerAlloc, logger: log}, nil
}

// Destroy returns the trusted region to the outer allocator (or the OS).
func (b *Base) Destroy() {
	if b.logger != nil {
		b.logger.Trace(baseTypeName + " allocator instance destruction started")
	}
	resolveOuter(b.outer).Free(b.mem)
	if b.logger != nil {
		b.logger.Trace(baseTypeName + " allocator instance destruction finished")
	}
	b.mem = nil
}

// MemorySize reports M.
func (b *Base) MemorySize() int {
	return int(readMemorySize(b.mem))
}

// Mode reports the current fit policy.
func (b *Base) Mode() Mode {
	return readMode(b.mem)
}

// SetMode overwrites the fit policy used by subsequent allocations.
func (b *Base) SetMode(m Mode) {
	if b.logger != nil {
		b.logger.Trace(fmt.Sprintf("%s::set_mode(%s)", baseTypeName, m))
	}
	writeMode(b.mem, m)
}

// Allocate returns n usable bytes carved from the trusted region.
func (b *Base) Allocate(n int) ([]byte, error) {
	const op = "Base.Allocate"
	if b.logger != nil {
		b.logger.Trace(fmt.Sprintf("%s::allocate(%d) execution started", baseTypeName, n)).
			Debug(fmt.Sprintf("requested %d bytes of memory", n))
	}

	requested := int64(n)
	if requested < wordSize {
		requested = wordSize
	}

	mem := b.mem
	mode := readMode(mem)
	head := readFreeHead(mem)
	minSize := requested + occupiedHeaderSize

	target, prevOfTarget := selectTarget(mem, mode, head, minSize)
	if target == nullOffset {
		msg := "no memory available to allocate"
		if b.logger != nil {
			b.logger.Warning(msg)
		}
		return nil, memoryError(op, msg)
	}

	targetSize := freeSizeAt(mem, target)
	allocated := requested
	leftover := targetSize - allocated - occupiedHeaderSize

	if leftover < freeHeaderSize {
		// Not enough residual space to host a well-formed free block:
		// hand the whole target block to the caller instead of leaving
		// an unreachable sliver behind.
		allocated = targetSize - occupiedHeaderSize
		unlinkFreeBlock(mem, target, prevOfTarget)
	} else {
		newFreeOff := target + occupiedHeaderSize + allocated
		replaceFreeBlock(mem, target, prevOfTarget, newFreeOff, leftover)
	}

	// The size word records the full block size (header + payload), the
	// same convention free blocks use, so dump_state's physical walk and
	// the coalescer's byte accounting don't need a special case for it.
	writeOccupiedAt(mem, target, allocated+occupiedHeaderSize, false)

	result := sliceAt(mem, absolute(target)+occupiedHeaderSize, int(allocated))[:n]

	if b.logger != nil {
		b.logger.Trace(fmt.Sprintf("allocated block placed at payload offset %d", target)).
			Debug(fmt.Sprintf("after allocate for %d bytes: %s", n, b.DumpState()))
	}
	return result, nil
}

// Deallocate releases p, which must be the exact slice returned by an
// earlier Allocate/Reallocate call on this allocator.
func (b *Base) Deallocate(p []byte) {
	if b.logger != nil {
		b.logger.Trace(baseTypeName + "::deallocate execution started")
	}

	block, ok := blockBase(b.mem, p)
	if !ok {
		if b.logger != nil {
			b.logger.Warning("attempt to deallocate a pointer outside the trusted memory payload")
		}
		return
	}

	size := occupiedSizeAt(b.mem, block, false)
	coalesceSorted(b.mem, block, size)

	if b.logger != nil {
		b.logger.Debug("after deallocate: " + b.DumpState())
		b.logger.Trace(baseTypeName + "::deallocate execution finished")
	}
}

// Reallocate allocates n bytes, copies the overlapping prefix from p, frees
// p, and returns the new block.
func (b *Base) Reallocate(p []byte, n int) ([]byte, error) {
	oldLen := len(p)
	next, err := b.Allocate(n)
	if err != nil {
		return nil, err
	}
	copy(next, p[:min(oldLen, n)])
	b.Deallocate(p)
	return next, nil
}

// ReallocateInPlace is the non-raising overload of Reallocate.
func (b *Base) ReallocateInPlace(p *[]byte, n int) bool {
	next, err := b.Reallocate(*p, n)
	if err != nil {
		if b.logger != nil {
			b.logger.Warning(err.Error())
		}
		return false
	}
	*p = next
	return true
}

// DumpState renders the payload's blocks in physical order.
func (b *Base) DumpState() string {
	return dumpState(b.mem, false, true)
}

// blockBase recovers the payload-relative offset of the occupied block that
// precedes the user data p, validating that it lies inside the payload. It
// reads the slice's data pointer directly via unsafe, which also works for
// a zero-length (but non-nil backing array) slice.
func blockBase(mem []byte, p []byte) (payloadOff int64, ok bool) {
	if cap(p) == 0 || len(mem) == 0 {
		return 0, false
	}
	dataPtr := *(*uintptr)(unsafe.Pointer(&p))
	arenaPtr := uintptr(unsafe.Pointer(&mem[0]))
	headerStart := int64(dataPtr-arenaPtr) - occupiedHeaderSize

	if headerStart < allocatorHeaderSize || headerStart >= int64(len(mem)) {
		return 0, false
	}
	return headerStart - allocatorHeaderSize, true
}

// sliceAt builds a []byte view of length bytes starting at absolute index
// absOff within mem.
func sliceAt(mem []byte, absOff int, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&mem[absOff])), length)
}

// dumpState is shared by Base and DoubleSystem; flagged selects the
// occupied-size decoding (variant B masks the allocated bit), and sorted
// selects whether the free list can be consumed in lockstep with the
// physical walk (Base) or must first be collected into a set (DoubleSystem,
// whose free list is not address-ordered).
func dumpState(mem []byte, flagged bool, sorted bool) string {
	m := readMemorySize(mem)

	var freeSet map[int64]bool
	freeCursor := readFreeHead(mem)
	if !sorted {
		freeSet = make(map[int64]bool)
		for cur := freeCursor; cur != nullOffset; cur = freeNextAt(mem, cur) {
			freeSet[cur] = true
		}
	}

	var sb strings.Builder
	sb.WriteByte('|')
	for off := int64(0); off < m; {
		isFree := false
		if sorted {
			isFree = freeCursor == off
		} else {
			isFree = freeSet[off]
		}

		var size int64
		if isFree {
			size = freeSizeAt(mem, off)
			sb.WriteString(fmt.Sprintf("avl %d|", size))
			if sorted {
				freeCursor = freeNextAt(mem, off)
			}
		} else {
			size = occupiedSizeAt(mem, off, flagged)
			sb.WriteString(fmt.Sprintf("occ %d|", size))
		}
		off += size
	}
	return sb.String()
}
