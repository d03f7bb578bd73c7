package allocator

// coalesceSorted inserts a newly-freed block (freedOff, freedSize) into the
// address-sorted free list rooted at free_head, merging it with an
// immediately adjacent predecessor and/or successor so invariant 2 (no two
// free blocks share a boundary) keeps holding. This is Base's coalescer.
//
// The list is kept address-sorted at all times, so the node immediately
// before the insertion point in list order is also the block with the
// largest address below freedOff, and the node immediately after is the
// block with the smallest address above it. A single left-to-right scan
// finds both merge candidates without a separate sort step.
func coalesceSorted(mem []byte, freedOff, freedSize int64) {
	head := readFreeHead(mem)

	prevOff := nullOffset
	cur := head
	for cur != nullOffset && cur < freedOff {
		prevOff = cur
		cur = freeNextAt(mem, cur)
	}
	nextOff := cur

	mergedOff, mergedSize := freedOff, freedSize
	finalNext := nextOff

	if nextOff != nullOffset && mergedOff+mergedSize == nextOff {
		mergedSize += freeSizeAt(mem, nextOff)
		finalNext = freeNextAt(mem, nextOff)
	}

	leftMerged := false
	if prevOff != nullOffset && prevOff+freeSizeAt(mem, prevOff) == mergedOff {
		mergedSize += freeSizeAt(mem, prevOff)
		mergedOff = prevOff
		leftMerged = true
	}

	writeFreeAt(mem, mergedOff, mergedSize, finalNext)

	if leftMerged {
		// mergedOff == prevOff: whatever pointed at prevOff already
		// points at the right slot, only its header needed rewriting.
		return
	}
	if prevOff == nullOffset {
		writeFreeHead(mem, mergedOff)
		return
	}
	setFreeNextAt(mem, prevOff, mergedOff)
}

// coalesceByScan merges a newly-freed block (freedOff, freedSize) with any
// free-list members that are physically adjacent to it, regardless of their
// position in the list, then reinserts the merged result at the head of the
// (order-independent) free list. This is DoubleSystem's coalescer.
//
// Invariant 2 guarantees at most one free neighbor can exist on each side
// before this call, so a single pass over the old free list is enough. The
// left-neighbor test compares against mergedOff, which only ever moves left,
// onto a free block that by invariant 2 has no free left neighbor of its own.
// mergedOff+mergedSize stays at the freed block's upper end, so a later
// right-neighbor test still lines up against the correct upper boundary no
// matter what order the scan visits the two neighbors in.
func coalesceByScan(mem []byte, freedOff, freedSize int64) {
	head := readFreeHead(mem)

	mergedOff, mergedSize := freedOff, freedSize
	var survivors []int64

	cur := head
	for cur != nullOffset {
		size := freeSizeAt(mem, cur)
		next := freeNextAt(mem, cur)

		switch {
		case cur+size == mergedOff:
			mergedOff = cur
			mergedSize += size
		case mergedOff+mergedSize == cur:
			mergedSize += size
		default:
			survivors = append(survivors, cur)
		}

		cur = next
	}

	writeFreeAt(mem, mergedOff, mergedSize, nullOffset)

	prev := mergedOff
	for _, s := range survivors {
		setFreeNextAt(mem, prev, s)
		prev = s
	}
	setFreeNextAt(mem, prev, nullOffset)
	writeFreeHead(mem, mergedOff)
}
