// Package allocator implements the block-level free-space engine described
// by this project: two allocators that carve variable-sized blocks out of a
// single trusted memory region obtained once from an outer allocator, track
// free space with an intrusive free list encoded inside the region itself,
// and select blocks under a configurable fit policy.
//
// Base and DoubleSystem are the two variants, implemented side by side in
// this package as sibling types sharing common helpers: Base coalesces by
// pointer-boundary arithmetic over an address-sorted free list, while
// DoubleSystem steals a bit from each block's size word to mark it occupied
// and coalesces by scanning the free list for physical neighbors.
package allocator

import (
	"fmt"

	"github.com/Pashen56/Allocator/outer"
)

// wordSize is the width, in bytes, of every header field. Block offsets are
// not rounded to a multiple of wordSize: each block starts where the
// previous block's size places it.
const wordSize = 8

const (
	// occupiedHeaderSize is the number of header bytes in front of an
	// occupied block's user data: one size word.
	occupiedHeaderSize = wordSize

	// freeHeaderSize is the number of header bytes of a free block: a
	// size word plus a next-pointer word.
	freeHeaderSize = 2 * wordSize

	// allocatorHeaderSize is the size of the allocator-wide header placed
	// at the start of the trusted region: memory_size, mode, free_head.
	allocatorHeaderSize = 3 * wordSize
)

// nullOffset is the free-list terminator and the "no block" sentinel for
// payload-relative offsets.
const nullOffset int64 = -1

// Mode selects which free block a request is satisfied from.
type Mode int64

const (
	// FirstFit takes the first qualifying free block encountered.
	FirstFit Mode = iota
	// BestFit takes the qualifying block with the least leftover space.
	BestFit
	// WorstFit takes the qualifying block with the most leftover space.
	WorstFit
)

func (m Mode) String() string {
	switch m {
	case FirstFit:
		return "first_fit"
	case BestFit:
		return "best_fit"
	case WorstFit:
		return "worst_fit"
	default:
		return fmt.Sprintf("mode(%d)", int64(m))
	}
}

// ErrorKind distinguishes the allocator's raised-error surfaces.
type ErrorKind int

const (
	// KindMemory covers construction rejection, out-of-memory, and
	// reallocation failure forwarded from out-of-memory.
	KindMemory ErrorKind = iota
	// KindNotImplemented marks an operation the core does not implement.
	// Nothing in this package raises it; it exists for parity with the
	// source project's unused not_implemented error kind.
	KindNotImplemented
)

// Error is the error type raised by construction and allocation failures.
// Everything else (invalid deallocate, reallocation failure reported
// through the in-place overload) is logged and converted to a boolean or a
// no-op instead of being raised, per the propagation policy this package
// follows.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return "allocator: " + e.Msg
	}
	return "allocator: " + e.Op + ": " + e.Msg
}

func memoryError(op, msg string) *Error {
	return &Error{Kind: KindMemory, Op: op, Msg: msg}
}

// ErrNotImplemented returns the unused not-implemented error kind, kept for
// parity with the source project's not_implemented error; no operation in
// this package returns it.
func ErrNotImplemented(op string) *Error {
	return &Error{Kind: KindNotImplemented, Op: op, Msg: "not implemented"}
}

// Allocator is the façade surface both variants implement.
type Allocator interface {
	// Allocate returns n usable bytes, or an *Error of KindMemory on
	// out-of-memory.
	Allocate(n int) ([]byte, error)

	// Deallocate releases a block previously returned by Allocate or
	// Reallocate. A pointer outside the payload logs a warning and does
	// nothing; it never panics and never returns an error.
	Deallocate(p []byte)

	// Reallocate allocates n bytes, copies min(len(p), n) bytes from p,
	// deallocates p, and returns the new block.
	Reallocate(p []byte, n int) ([]byte, error)

	// ReallocateInPlace is the boolean overload: on success *p is updated
	// and true is returned; on failure *p is left untouched, a warning is
	// logged, and false is returned.
	ReallocateInPlace(p *[]byte, n int) bool

	// SetMode changes the fit policy used by subsequent allocations.
	SetMode(m Mode)

	// Mode reports the current fit policy.
	Mode() Mode

	// MemorySize reports M, the payload capacity given at construction.
	MemorySize() int

	// DumpState renders the payload's blocks, in physical order, as a
	// pipe-delimited "|avl <size>|occ <size>|...|" string.
	DumpState() string

	// Destroy returns the trusted region to the outer allocator (or lets
	// it become garbage if none was supplied). The allocator must not be
	// used afterward.
	Destroy()
}

var (
	_ Allocator = (*Base)(nil)
	_ Allocator = (*DoubleSystem)(nil)
)

// resolveOuter returns o, or the shared OS-backed allocator when o is nil.
// The outer allocator is allowed to be absent.
func resolveOuter(o outer.Allocator) outer.Allocator {
	if o == nil {
		return outer.OS{}
	}
	return o
}
