package layer

import (
	"container/heap"
	"fmt"
)

// magnitudeHeap is a fixed-capacity min-heap of input indices keyed by the
// magnitude of their values: the root is always the smallest surviving
// magnitude, so eviction is a single Pop when the heap overflows.
type magnitudeHeap struct {
	idx  []int
	vals []float64
}

func (h *magnitudeHeap) Len() int { return len(h.idx) }
func (h *magnitudeHeap) Less(i, j int) bool {
	return abs(h.vals[h.idx[i]]) < abs(h.vals[h.idx[j]])
}
func (h *magnitudeHeap) Swap(i, j int)      { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *magnitudeHeap) Push(x interface{}) { h.idx = append(h.idx, x.(int)) }
func (h *magnitudeHeap) Pop() interface{} {
	n := len(h.idx)
	v := h.idx[n-1]
	h.idx = h.idx[:n-1]
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// TopK retains the k largest-magnitude elements of its input and zeroes the
// rest. Forward records the retention mask; Backward routes the gradient
// through it.
type TopK struct {
	noParams
	k int

	heap   magnitudeHeap
	mask   []float64
	output []float64
	gradIn []float64
}

// NewTopK creates a sparsifier keeping the k largest-magnitude elements.
func NewTopK(k int) *TopK {
	if k <= 0 {
		panic(fmt.Sprintf("topk: invalid k %d", k))
	}
	return &TopK{k: k}
}

// retain writes the sparsified input into dst and, when mask is non-nil,
// records 1 at every retained index.
func (t *TopK) retain(x, dst, mask []float64) {
	t.heap.vals = x
	t.heap.idx = t.heap.idx[:0]
	for i := range x {
		heap.Push(&t.heap, i)
		if t.heap.Len() > t.k {
			heap.Pop(&t.heap)
		}
	}
	zero(dst)
	if mask != nil {
		zero(mask)
	}
	for _, i := range t.heap.idx {
		dst[i] = x[i]
		if mask != nil {
			mask[i] = 1
		}
	}
}

// Calc computes the sparsified output without touching the recorded mask.
func (t *TopK) Calc(x []float64) []float64 {
	t.output = ensure(t.output, len(x))
	t.retain(x, t.output, nil)
	return t.output
}

// Forward computes the sparsified output and records the retention mask.
func (t *TopK) Forward(x []float64) []float64 {
	t.output = ensure(t.output, len(x))
	t.mask = ensure(t.mask, len(x))
	t.retain(x, t.output, t.mask)
	return t.output
}

// Backward routes the gradient through the retention mask.
func (t *TopK) Backward(x, grad []float64) []float64 {
	if len(t.mask) != len(grad) {
		panic(fmt.Sprintf("topk: backward without matching forward (mask %d, grad %d)", len(t.mask), len(grad)))
	}
	t.gradIn = ensure(t.gradIn, len(grad))
	for i, g := range grad {
		t.gradIn[i] = g * t.mask[i]
	}
	return t.gradIn
}
