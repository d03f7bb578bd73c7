package allocator

// selectTarget walks the free list rooted at head, applying the fit policy
// mode to find a block whose size is >= minSize. It returns the chosen
// block's payload offset and the offset of its predecessor in the list
// (nullOffset if the chosen block is the head), or (nullOffset, nullOffset)
// if no block qualifies.
//
// Both variants share this walk: the free-list representation (size word
// plus next-offset word) and the three fit policies are identical for Base
// and DoubleSystem, only the occupied-header encoding and the coalescer
// differ between them.
func selectTarget(mem []byte, mode Mode, head int64, minSize int64) (target, prevOfTarget int64) {
	target, prevOfTarget = nullOffset, nullOffset

	prev := nullOffset
	cur := head
	for cur != nullOffset {
		size := freeSizeAt(mem, cur)
		next := freeNextAt(mem, cur)

		if size >= minSize {
			switch mode {
			case FirstFit:
				return cur, prev
			case BestFit:
				if target == nullOffset || size < freeSizeAt(mem, target) {
					target, prevOfTarget = cur, prev
				}
			case WorstFit:
				if target == nullOffset || size > freeSizeAt(mem, target) {
					target, prevOfTarget = cur, prev
				}
			}
		}

		prev = cur
		cur = next
	}

	return target, prevOfTarget
}

// unlinkFreeBlock removes the free block at target (whose predecessor in
// the list is prevOfTarget) from the free list rooted at head, relinking
// around it.
func unlinkFreeBlock(mem []byte, target, prevOfTarget int64) {
	next := freeNextAt(mem, target)
	if prevOfTarget == nullOffset {
		writeFreeHead(mem, next)
		return
	}
	setFreeNextAt(mem, prevOfTarget, next)
}

// replaceFreeBlock swaps the free-list slot occupied by target (predecessor
// prevOfTarget) for a new free block at replacement, preserving target's
// former successor as replacement's next.
func replaceFreeBlock(mem []byte, target, prevOfTarget, replacement int64, replacementSize int64) {
	next := freeNextAt(mem, target)
	writeFreeAt(mem, replacement, replacementSize, next)
	if prevOfTarget == nullOffset {
		writeFreeHead(mem, replacement)
		return
	}
	setFreeNextAt(mem, prevOfTarget, replacement)
}

// prependFreeBlock inserts a free block at the head of the free list,
// without regard to address order. Neither allocator calls it:
// DoubleSystem's coalescer (coalesceByScan) relinks the free list itself.
func prependFreeBlock(mem []byte, off int64, size int64) {
	writeFreeAt(mem, off, size, readFreeHead(mem))
	writeFreeHead(mem, off)
}
