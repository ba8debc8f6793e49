// File: arena/page.go
// Package arena implements the buffer arena and segmented receive buffer
// of spec.md §4.1-4.2: a ring-structured slab allocator producing mutable
// buffers safe to hand to the kernel, and an immutable refcounted view
// after freeze.
//
// This is the only subsystem that touches raw byte slices outside of
// what Go's own memory safety already guarantees — it is the slab
// allocator the teacher's pool.slabPool played the same role for
// (pool/slab_pool.go), generalized here from NUMA-local WebSocket
// payload buffers to ZMTP frame storage.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package arena

import "sync/atomic"

// page is a fixed-capacity byte region shared by every slab and view cut
// from it. Released back to nothing (garbage collected) once its
// refcount reaches zero; Go's GC is the "release" mechanism, the
// refcount only governs when the page stops being mutated from two
// places at once.
type page struct {
	bytes []byte
	refs  atomic.Int32
}

func newPage(capacity int) *page {
	p := &page{bytes: make([]byte, capacity)}
	p.refs.Store(1)
	return p
}

func (p *page) retain() { p.refs.Add(1) }

func (p *page) release() {
	if p.refs.Add(-1) == 0 {
		p.bytes = nil // drop the backing array for GC
	}
}
