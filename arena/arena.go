// File: arena/arena.go
// Package arena
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Arena allocates fixed-capacity pages and cuts mutable Slabs from the
// current one. Grounded on the teacher's pool.slabPool (pool/slab_pool.go)
// size-class allocator, stripped of NUMA-node bookkeeping: spec.md's
// design notes (§9) are explicit that the arena is per-socket and must
// never become a cross-socket contention point, so there is no pool
// manager keyed by NUMA node here — one Arena per socket.Base, full stop.
package arena

import "github.com/vorjdux/monocoque/api"

// Arena is the per-socket allocator of spec.md §4.1. It is not safe for
// concurrent use from multiple goroutines — the same single-threaded-
// per-socket assumption (spec.md §5) that governs socket.Base governs
// the arena it owns.
//
// The page refcount exists to make the "no outstanding immutable view
// while mutable" invariant locally checkable even though Go's garbage
// collector, not the refcount, is what actually frees page memory; a
// Rust port of this same design relies on the refcount for that.
type Arena struct {
	pageSize   int
	cur        *page
	curOffset  int
	totalAlloc int64
}

// DefaultPageSize is the page capacity new pages are cut to when a slab
// request does not fit the remainder of the current page.
const DefaultPageSize = 64 * 1024

// New creates an Arena with the given page size (0 selects DefaultPageSize).
func New(pageSize int) *Arena {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Arena{pageSize: pageSize}
}

// AllocMut returns a mutable Slab of capacity n, InitLen 0. Fails only
// with ErrResourceExhausted (spec.md §4.1), for a negative n; a request
// larger than the arena's page size is given a dedicated page of its own.
func (a *Arena) AllocMut(n int) (Slab, error) {
	if n < 0 {
		return Slab{}, api.ErrResourceExhausted.WithContext("n", n)
	}
	if n > a.pageSize {
		// Oversized allocation: dedicate a single page to it.
		pg := newPage(n)
		a.totalAlloc++
		return Slab{pg: pg, off: 0, cap: n}, nil
	}
	if a.cur == nil || a.curOffset+n > a.pageSize {
		a.cur = newPage(a.pageSize)
		a.curOffset = 0
	}
	s := Slab{pg: a.cur, off: a.curOffset, cap: n}
	a.cur.retain()
	a.curOffset += n
	a.totalAlloc++
	return s, nil
}

// TotalAllocations reports the number of slabs carved since construction,
// for the ambient metrics/debug surface (control.Debug).
func (a *Arena) TotalAllocations() int64 { return a.totalAlloc }
