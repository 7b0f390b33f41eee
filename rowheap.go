package linesort

import "github.com/lindhal/linesort/internal/lineio"

// rowCursor pairs the currently buffered record with the reader that
// produced it. The row slice is only valid until the cursor's reader is
// advanced, which the merge loop does only after the row is written.
type rowCursor struct {
	row []byte
	src *lineio.Reader
}

// rowHeap is a min-heap over the active cursors of one merge, keyed by
// the comparison function. Fan-in is bounded by the configured
// parallelism, so the heap stays small; equal-ranked rows pop in
// arbitrary order. Implements container/heap.Interface.
type rowHeap struct {
	cursors []*rowCursor
	cmp     Compare
}

func (h *rowHeap) Len() int { return len(h.cursors) }

func (h *rowHeap) Less(i, j int) bool {
	return h.cmp(h.cursors[i].row, h.cursors[j].row) < 0
}

func (h *rowHeap) Swap(i, j int) {
	h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i]
}

func (h *rowHeap) Push(x any) {
	h.cursors = append(h.cursors, x.(*rowCursor))
}

func (h *rowHeap) Pop() any {
	old := h.cursors
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	h.cursors = old[:n-1]
	return c
}
