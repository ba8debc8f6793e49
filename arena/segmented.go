// File: arena/segmented.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SegmentedBuffer is the append-only sequence of immutable views with a
// read cursor (spec.md §4.2). Grounded on the teacher's
// internal/concurrency/ring.go RingBuffer shape (a growable slice plus
// head/tail bookkeeping), simplified to single-threaded use since the
// decoder is the only consumer and the socket read loop is the only
// producer — no atomics needed here, unlike the teacher's cross-thread
// RingBuffer.
package arena

// SegmentedBuffer holds pushed Views in order and tracks how many bytes
// at the front have been consumed by the decoder.
type SegmentedBuffer struct {
	segments []View
	// consumed is the number of bytes consumed from segments[0].
	consumed int
}

// Push appends a freshly frozen View to the buffer.
func (b *SegmentedBuffer) Push(v View) {
	b.segments = append(b.segments, v)
}

// Len returns the number of unconsumed bytes across all segments.
func (b *SegmentedBuffer) Len() int {
	if len(b.segments) == 0 {
		return 0
	}
	total := -b.consumed
	for _, s := range b.segments {
		total += s.Len()
	}
	return total
}

// Peek returns the first n unconsumed bytes without advancing the
// cursor, or nil if fewer than n are buffered.
// If the requested span crosses a segment boundary, it performs a
// single coalescing copy into a scratch slice (spec.md §4.2); the
// common case (span within segments[0]) is zero-copy.
func (b *SegmentedBuffer) Peek(n int) []byte {
	if n <= 0 || len(b.segments) == 0 {
		return nil
	}
	first := b.segments[0].Bytes()[b.consumed:]
	if n <= len(first) {
		return first[:n]
	}
	out := make([]byte, 0, n)
	out = append(out, first...)
	for i := 1; i < len(b.segments) && len(out) < n; i++ {
		seg := b.segments[i].Bytes()
		need := n - len(out)
		if need > len(seg) {
			out = append(out, seg...)
		} else {
			out = append(out, seg[:need]...)
		}
	}
	if len(out) < n {
		return nil // not enough buffered yet
	}
	return out
}

// Consume advances the read cursor by n bytes, releasing any segment
// fully passed over.
func (b *SegmentedBuffer) Consume(n int) {
	for n > 0 && len(b.segments) > 0 {
		remain := b.segments[0].Len() - b.consumed
		if n < remain {
			b.consumed += n
			return
		}
		n -= remain
		b.segments[0].Release()
		b.segments = b.segments[1:]
		b.consumed = 0
	}
}

// SplitTo removes and returns the first n unconsumed bytes as a single
// shared View, advancing the cursor past them. If the span is already a
// single segment's tail, this is zero-copy; otherwise it coalesces.
func (b *SegmentedBuffer) SplitTo(n int) View {
	if len(b.segments) == 0 || n <= 0 {
		return View{}
	}
	first := b.segments[0]
	remain := first.Len() - b.consumed
	if n <= remain {
		v := first.Slice(b.consumed, b.consumed+n)
		b.Consume(n)
		return v
	}
	raw := b.Peek(n)
	if raw == nil {
		return View{}
	}
	v := NewViewFromBytes(raw)
	b.Consume(n)
	return v
}
