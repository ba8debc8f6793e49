// File: arena/view.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package arena

// View is a refcounted, immutable shared view over a page region. Cheap
// to clone (refcount increment only); used universally as the
// message-frame payload unit (spec.md §3 "Immutable byte slice").
type View struct {
	pg     *page
	off    int
	length int
}

// Len returns the view's length.
func (v View) Len() int { return v.length }

// Bytes exposes the view's bytes. Callers must not mutate the returned
// slice — it may be shared with other views over the same page.
func (v View) Bytes() []byte {
	if v.pg == nil {
		return nil
	}
	return v.pg.bytes[v.off : v.off+v.length]
}

// Clone increments the page refcount and returns an independent handle
// to the same bytes. Cheap: no copy.
func (v View) Clone() View {
	if v.pg != nil {
		v.pg.retain()
	}
	return v
}

// Release drops this handle's hold on the backing page. Every Clone and
// every Freeze must be matched by exactly one Release.
func (v View) Release() {
	if v.pg != nil {
		v.pg.release()
	}
}

// Slice returns a sub-view sharing the same page, incrementing the
// refcount independently of v.
func (v View) Slice(from, to int) View {
	if from < 0 || to > v.length || from > to {
		return View{}
	}
	v.pg.retain()
	return View{pg: v.pg, off: v.off + from, length: to - from}
}

// NewViewFromBytes copies p into a freshly allocated single-page view.
// Used by code paths that build a frame payload outside the arena (e.g.
// the security mechanisms decrypting into a scratch buffer) and need to
// hand the result to the rest of the core as a View.
func NewViewFromBytes(p []byte) View {
	pg := newPage(len(p))
	copy(pg.bytes, p)
	return View{pg: pg, off: 0, length: len(p)}
}
