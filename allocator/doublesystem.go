package allocator

import (
	"fmt"

	"github.com/Pashen56/Allocator/logging"
	"github.com/Pashen56/Allocator/outer"
)

// DoubleSystem is the "double-system" variant: every block's size word
// reserves its low bit as an allocated flag, and deallocation coalesces by
// scanning the free list for physical neighbors rather than by pointer
// arithmetic on an address-sorted list. Its free list is kept unordered,
// since this variant's coalescer finds its merge candidates by physical
// adjacency rather than by list position.
type DoubleSystem struct {
	mem    []byte
	outer  outer.Allocator
	logger logging.Logger
}

const doubleSystemTypeName = "DoubleSystem"

// NewDoubleSystem constructs a DoubleSystem allocator the same way NewBase
// does, differing in how occupied blocks are tagged and in rounding m up to
// an even size.
func NewDoubleSystem(m int, outerAlloc outer.Allocator, log logging.Logger, mode Mode) (*DoubleSystem, error) {
	if log != nil {
		log.Trace(doubleSystemTypeName + " allocator instance construction started").
			Debug(fmt.Sprintf("requested memory size: %d bytes", m))
	}

	if int64(m) < freeHeaderSize {
		msg := fmt.Sprintf("trusted memory size must be at least %d bytes", freeHeaderSize)
		if log != nil {
			log.Error(msg)
		}
		return nil, memoryError("NewDoubleSystem", msg)
	}

	// The allocated bit steals bit 0 of every occupied block's size word,
	// which only stays unambiguous if every free block's size (and so,
	// inductively, every occupied block carved from one) is even. Rounding
	// the managed region up to even keeps that invariant true from
	// construction onward instead of just at each Allocate call.
	effectiveM := roundEven(int64(m))

	o := resolveOuter(outerAlloc)
	mem, err := o.Alloc(allocatorHeaderSize + int(effectiveM))
	if err != nil {
		msg := "outer allocator failed to provide trusted memory: " + err.Error()
		if log != nil {
			log.Error(msg)
		}
		return nil, memoryError("NewDoubleSystem", msg)
	}

	writeMemorySize(mem, effectiveM)
	writeMode(mem, mode)
	writeFreeHead(mem, 0)
	writeFreeAt(mem, 0, effectiveM, nullOffset)

	if log != nil {
		log.Trace(doubleSystemTypeName + " allocator instance construction finished")
	}

	return &DoubleSystem{mem: mem, outer: outerAlloc, logger: log}, nil
}

// Destroy returns the trusted region to the outer allocator (or the OS).
func (d *DoubleSystem) Destroy() {
	if d.logger != nil {
		d.logger.Trace(doubleSystemTypeName + " allocator instance destruction started")
	}
	resolveOuter(d.outer).Free(d.mem)
	if d.logger != nil {
		d.logger.Trace(doubleSystemTypeName + " allocator instance destruction finished")
	}
	d.mem = nil
}

// MemorySize reports M.
func (d *DoubleSystem) MemorySize() int {
	return int(readMemorySize(d.mem))
}

// Mode reports the current fit policy.
func (d *DoubleSystem) Mode() Mode {
	return readMode(d.mem)
}

// SetMode overwrites the fit policy used by subsequent allocations.
func (d *DoubleSystem) SetMode(m Mode) {
	if d.logger != nil {
		d.logger.Trace(fmt.Sprintf("%s::set_mode(%s)", doubleSystemTypeName, m))
	}
	writeMode(d.mem, m)
}

// Allocate returns n usable bytes carved from the trusted region.
func (d *DoubleSystem) Allocate(n int) ([]byte, error) {
	const op = "DoubleSystem.Allocate"
	if d.logger != nil {
		d.logger.Trace(fmt.Sprintf("%s::allocate(%d) execution started", doubleSystemTypeName, n)).
			Debug(fmt.Sprintf("requested %d bytes of memory", n))
	}

	requested := roundEven(int64(n))
	if requested < wordSize {
		requested = wordSize
	}

	mem := d.mem
	mode := readMode(mem)
	head := readFreeHead(mem)
	minSize := requested + occupiedHeaderSize

	target, prevOfTarget := selectTarget(mem, mode, head, minSize)
	if target == nullOffset {
		msg := "no memory available to allocate"
		if d.logger != nil {
			d.logger.Warning(msg)
		}
		return nil, memoryError(op, msg)
	}

	targetSize := freeSizeAt(mem, target)
	allocated := requested
	leftover := targetSize - allocated - occupiedHeaderSize

	if leftover < freeHeaderSize {
		// targetSize is even by construction (see NewDoubleSystem), so
		// consuming it whole never needs an extra rounding step.
		allocated = targetSize - occupiedHeaderSize
		unlinkFreeBlock(mem, target, prevOfTarget)
	} else {
		newFreeOff := target + occupiedHeaderSize + allocated
		replaceFreeBlock(mem, target, prevOfTarget, newFreeOff, leftover)
	}

	// Same header convention as Base: the size word holds the full block
	// size including its own header, not just the payload.
	writeOccupiedAt(mem, target, allocated+occupiedHeaderSize, true)

	result := sliceAt(mem, absolute(target)+occupiedHeaderSize, int(allocated))[:n]

	if d.logger != nil {
		d.logger.Trace(fmt.Sprintf("allocated block placed at payload offset %d", target)).
			Debug(fmt.Sprintf("after allocate for %d bytes: %s", n, d.DumpState()))
	}
	return result, nil
}

// Deallocate releases p, which must be the exact slice returned by an
// earlier Allocate/Reallocate call on this allocator.
func (d *DoubleSystem) Deallocate(p []byte) {
	if d.logger != nil {
		d.logger.Trace(doubleSystemTypeName + "::deallocate execution started")
	}

	block, ok := blockBase(d.mem, p)
	if !ok {
		if d.logger != nil {
			d.logger.Warning("attempt to deallocate a pointer outside the trusted memory payload")
		}
		return
	}

	size := occupiedSizeAt(d.mem, block, true)
	clearAllocatedAt(d.mem, block)
	coalesceByScan(d.mem, block, size)

	if d.logger != nil {
		d.logger.Debug("after deallocate: " + d.DumpState())
		d.logger.Trace(doubleSystemTypeName + "::deallocate execution finished")
	}
}

// Reallocate allocates n bytes, copies min(len(p), n) bytes from p, frees p,
// and returns the new block. Copying the caller-visible lengths instead of
// deriving a copy size from the block headers avoids underflow on small
// blocks.
func (d *DoubleSystem) Reallocate(p []byte, n int) ([]byte, error) {
	oldLen := len(p)
	next, err := d.Allocate(n)
	if err != nil {
		return nil, err
	}
	copy(next, p[:min(oldLen, n)])
	d.Deallocate(p)
	return next, nil
}

// ReallocateInPlace is the non-raising overload of Reallocate.
func (d *DoubleSystem) ReallocateInPlace(p *[]byte, n int) bool {
	next, err := d.Reallocate(*p, n)
	if err != nil {
		if d.logger != nil {
			d.logger.Warning(err.Error())
		}
		return false
	}
	*p = next
	return true
}

// DumpState renders the payload's blocks in physical order.
func (d *DoubleSystem) DumpState() string {
	return dumpState(d.mem, true, false)
}
