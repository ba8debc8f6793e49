// File: wire/codec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wire

import (
	"encoding/binary"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
)

// headerLen returns the header length (flags + length field) a payload
// of size n would use: 2 bytes for the short form, 10 for the long form.
func headerLen(n int64) int {
	if n <= 255 {
		return 2
	}
	return 10
}

// DecodeFrame attempts to decode one frame from the front of sb.
//
// Returns (frame, true, nil) on success, consuming exactly
// header+payload bytes from sb. Returns (Frame{}, false, nil) when sb
// does not yet hold a complete frame ("NeedMore" per spec.md §4.3) —
// the cursor is left untouched. Returns a non-nil error only on a
// genuine protocol violation (unknown flag bits, payload over
// maxMsgSize).
func DecodeFrame(sb *arena.SegmentedBuffer, maxMsgSize int64) (Frame, bool, error) {
	head := sb.Peek(2)
	if head == nil {
		return Frame{}, false, nil
	}
	flags := head[0]
	if flags&^knownFlagsMask != 0 {
		return Frame{}, false, api.ErrProtocolViolation.WithContext("flags", flags)
	}

	var length int64
	var hlen int
	if flags&FlagLong != 0 {
		ext := sb.Peek(10)
		if ext == nil {
			return Frame{}, false, nil
		}
		length = int64(binary.BigEndian.Uint64(ext[2:10]))
		hlen = 10
	} else {
		length = int64(head[1])
		hlen = 2
	}

	if length < 0 || (maxMsgSize > 0 && length > maxMsgSize) {
		return Frame{}, false, api.ErrProtocolViolation.WithContext("length", length)
	}

	total := hlen + int(length)
	if sb.Len() < total {
		return Frame{}, false, nil
	}

	full := sb.SplitTo(total)
	payload := full.Slice(hlen, total)
	full.Release()
	return Frame{Flags: flags, Payload: payload}, true, nil
}

// EncodeFrame appends the wire encoding of a frame carrying payload to
// dst and returns the extended slice. more/command set the MORE and
// COMMAND flag bits; the LONG bit is set if and only if it is necessary
// (spec.md §4.3 invariant).
func EncodeFrame(dst []byte, payload []byte, more bool, command bool) []byte {
	n := int64(len(payload))
	var flags byte
	if more {
		flags |= FlagMore
	}
	if command {
		flags |= FlagCommand
	}

	if n <= 255 {
		dst = append(dst, flags, byte(n))
	} else {
		flags |= FlagLong
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(n))
		dst = append(dst, flags)
		dst = append(dst, lenBuf[:]...)
	}
	return append(dst, payload...)
}

// EncodeMessage appends the wire encoding of every frame in msg to dst,
// setting MORE on all but the final frame regardless of what the
// individual Frame.Flags held (the pattern layer is the source of truth
// for message boundaries, not stale flags on a re-sent Frame).
func EncodeMessage(dst []byte, msg [][]byte, command bool) []byte {
	for i, payload := range msg {
		more := i < len(msg)-1
		dst = EncodeFrame(dst, payload, more, command)
	}
	return dst
}
