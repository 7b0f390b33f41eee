package linesort

import (
	"math"
	"sync"
)

// reporter wraps a user progress callback, clamping fractions to [0, 1]
// and enforcing monotonicity. Parallel phases report from multiple
// goroutines, so the callback runs under the reporter's lock; the lock
// is never held across I/O.
type reporter struct {
	fn   Progress
	mu   sync.Mutex
	last float64
}

func newReporter(fn Progress) *reporter {
	return &reporter{fn: fn}
}

// report invokes the callback if f advances past the last reported
// fraction.
func (r *reporter) report(f float64) {
	if r == nil || r.fn == nil {
		return
	}
	if f <= 0 || math.IsNaN(f) {
		return
	}
	if f > 1 {
		f = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f <= r.last {
		return
	}
	r.last = f
	r.fn(f)
}

// done reports completion. Every successful phase ends with exactly 1.
func (r *reporter) done() {
	if r == nil || r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == 1 {
		return
	}
	r.last = 1
	r.fn(1)
}
