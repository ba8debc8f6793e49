// File: arena/slab.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package arena

import "github.com/vorjdux/monocoque/api"

// Slab is a contiguous byte region exclusively owned while mutable.
// Invariants (spec.md §3):
//   (a) no outstanding immutable View exists while the Slab is mutable —
//       Freeze clears the Slab's page reference when it hands out the View;
//   (b) initLen never exceeds capacity — enforced by SetInitLen;
//   (c) bytes beyond initLen are never exposed to readers — the View
//       Freeze returns covers only [0, initLen); AsUninitSlice exposes
//       the full capacity, for filling only.
type Slab struct {
	pg      *page
	off     int
	cap     int
	initLen int
}

// Cap returns the slab's capacity.
func (s Slab) Cap() int { return s.cap }

// InitLen returns how much of the slab has been declared initialized.
func (s Slab) InitLen() int { return s.initLen }

// AsUninitSlice exposes the full capacity for a kernel read (or any
// writer) to fill. The caller must follow with SetInitLen before any
// byte beyond the old InitLen is read back.
func (s Slab) AsUninitSlice() []byte {
	return s.pg.bytes[s.off : s.off+s.cap]
}

// SetInitLen declares k<=Cap() bytes initialized. Panics on k>Cap(),
// mirroring the teacher's fail-fast style for programmer errors rather
// than threading an error return through the hot I/O path.
func (s *Slab) SetInitLen(k int) {
	if k > s.cap {
		panic("arena: SetInitLen exceeds slab capacity")
	}
	s.initLen = k
}

// Freeze converts the slab into an immutable shared View over
// bytes[0:initLen]. The slab is consumed: callers must not reuse s after
// Freeze returns is a documented contract, not one Go's type system can
// enforce on a value receiver, so Freeze clears s.pg to make any later
// use of the same variable panic loudly rather than corrupt silently.
func (s *Slab) Freeze() View {
	s.pg.retain()
	v := View{pg: s.pg, off: s.off, length: s.initLen}
	s.pg = nil
	return v
}

// Write implements io.Writer over the uninitialized tail of the slab,
// advancing InitLen as bytes land. Used by decoders that build a slab
// incrementally instead of via a single kernel read.
func (s *Slab) Write(p []byte) (int, error) {
	free := s.cap - s.initLen
	if free <= 0 {
		return 0, api.ErrResourceExhausted
	}
	n := len(p)
	if n > free {
		n = free
	}
	copy(s.pg.bytes[s.off+s.initLen:s.off+s.initLen+n], p[:n])
	s.initLen += n
	return n, nil
}
