package evaluator

import "sync"

// Store owns the per-box multipole and local expansion arrays: flat slices
// of length numBoxes, indexed 1:1 by box id. It has no dynamic insertion;
// resizing after construction is a programmer error, so Store is built once
// per evaluation via NewStore or a Pool and discarded (or recycled)
// afterwards.
type Store[M, L any] struct {
	M []M
	L []L
}

// NewStore allocates a fresh, zero-valued Store sized for numBoxes boxes.
func NewStore[M, L any](numBoxes int) *Store[M, L] {
	return &Store[M, L]{
		M: make([]M, numBoxes),
		L: make([]L, numBoxes),
	}
}

// Pool recycles Store buffers across evaluations: an Acquire/cleanup-
// function pair backed by sync.Pool, so a server handling repeated
// requests or a calibration loop running many evaluations back to back
// does not re-allocate M/L storage every time the tree shape (box count)
// matches a previously released one.
//
// A Pool is safe for concurrent use; each Acquire call gets its own Store.
type Pool[M, L any] struct {
	mSlices sync.Pool
	lSlices sync.Pool
}

// NewPool creates an empty Store pool for the given M/L expansion types.
func NewPool[M, L any]() *Pool[M, L] {
	return &Pool[M, L]{
		mSlices: sync.Pool{New: func() any { return make([]M, 0) }},
		lSlices: sync.Pool{New: func() any { return make([]L, 0) }},
	}
}

// Acquire returns a Store sized for numBoxes boxes, reusing pooled backing
// arrays when available, and a cleanup function that returns the buffers to
// the pool. The cleanup function should be called with defer immediately
// after acquiring:
//
//	store, release := pool.Acquire(tree.NumBoxes())
//	defer release()
func (p *Pool[M, L]) Acquire(numBoxes int) (store *Store[M, L], release func()) {
	m := growZeroed(p.mSlices.Get().([]M), numBoxes)
	l := growZeroed(p.lSlices.Get().([]L), numBoxes)
	store = &Store[M, L]{M: m, L: l}
	release = func() {
		p.mSlices.Put(m[:0])
		p.lSlices.Put(l[:0])
	}
	return store, release
}

// growZeroed returns a slice of exactly length n built from buf's backing
// array when it has enough capacity, with every element reset to its zero
// value (a pooled slice may carry stale expansion coefficients from a
// previous, differently shaped tree).
func growZeroed[T any](buf []T, n int) []T {
	var out []T
	if cap(buf) >= n {
		out = buf[:n]
	} else {
		out = make([]T, n)
	}
	var zero T
	for i := range out {
		out[i] = zero
	}
	return out
}
