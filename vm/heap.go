package vm

import (
	"sort"

	"github.com/trivm/trivm/isa"
)

// Heap is a free-list allocator over the flat memory between the data
// segment and the stack. Blocks are word-aligned; freed blocks are
// coalesced with their neighbors and reused first-fit before the break
// is bumped.
type Heap struct {
	base uint32
	brk  uint32
	free []heapSpan
	live map[uint32]uint32 // block address -> size
}

type heapSpan struct {
	addr uint32
	size uint32
}

// Reset empties the heap and places it at base.
func (h *Heap) Reset(base uint32) {
	h.base = base
	h.brk = base
	h.free = nil
	h.live = map[uint32]uint32{}
}

// End returns the first byte above the heap; the stack must not descend
// past it.
func (h *Heap) End() uint32 {
	return h.brk
}

// Live returns the number of allocated blocks.
func (h *Heap) Live() int {
	return len(h.live)
}

// Alloc reserves size bytes and returns the block address. limit is the
// first unusable byte, normally the current stack pointer.
func (h *Heap) Alloc(size, limit uint32) (addr uint32, err error) {
	if size == 0 || size > isa.WORD_MASK {
		return 0, ErrBadAlloc(size)
	}
	size = (size + WORD_SIZE - 1) / WORD_SIZE * WORD_SIZE

	for i, span := range h.free {
		if span.size < size {
			continue
		}
		addr = span.addr
		if span.size == size {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			h.free[i] = heapSpan{addr: span.addr + size, size: span.size - size}
		}
		h.live[addr] = size
		return addr, nil
	}

	if h.brk+size > limit || h.brk+size < h.brk {
		return 0, ErrHeapExhausted
	}
	addr = h.brk
	h.brk += size
	h.live[addr] = size
	return addr, nil
}

// Free releases a block returned by Alloc. Freeing any other address is
// an error.
func (h *Heap) Free(addr uint32) error {
	size, ok := h.live[addr]
	if !ok {
		return ErrBadFree(addr)
	}
	delete(h.live, addr)

	// The topmost block retracts the break directly.
	if addr+size == h.brk {
		h.brk = addr
		h.retract()
		return nil
	}

	h.free = append(h.free, heapSpan{addr: addr, size: size})
	sort.Slice(h.free, func(i, j int) bool { return h.free[i].addr < h.free[j].addr })
	h.coalesce()
	return nil
}

// coalesce merges adjacent free spans.
func (h *Heap) coalesce() {
	merged := h.free[:0]
	for _, span := range h.free {
		if n := len(merged); n > 0 && merged[n-1].addr+merged[n-1].size == span.addr {
			merged[n-1].size += span.size
			continue
		}
		merged = append(merged, span)
	}
	h.free = merged
}

// retract gives free spans touching the break back to the unallocated
// area.
func (h *Heap) retract() {
	for n := len(h.free); n > 0; n = len(h.free) {
		last := h.free[n-1]
		if last.addr+last.size != h.brk {
			return
		}
		h.brk = last.addr
		h.free = h.free[:n-1]
	}
}
