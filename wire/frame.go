// File: wire/frame.go
// Package wire implements the ZMTP 3.1 frame codec and command encoding
// of spec.md §4.3 and §6.1. Grounded on the teacher's
// protocol/frame_codec.go (short/long length forms, flag bits) and
// protocol/frame.go (WSFrame shape), generalized from WebSocket framing
// (FIN/opcode/mask) to ZMTP framing (MORE/LONG/COMMAND, no masking).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wire

import "github.com/vorjdux/monocoque/arena"

// Flag bits, per spec.md §6.1: bit 0 = MORE, bit 1 = LONG, bit 2 = COMMAND.
const (
	FlagMore    byte = 0x01
	FlagLong    byte = 0x02
	FlagCommand byte = 0x04

	knownFlagsMask = FlagMore | FlagLong | FlagCommand
)

// Frame is the smallest unit on the wire: flags plus an immutable
// payload view (spec.md §3).
type Frame struct {
	Flags   byte
	Payload arena.View
}

// More reports whether another frame follows in the logical message.
func (f Frame) More() bool { return f.Flags&FlagMore != 0 }

// IsCommand reports whether this is a protocol command frame rather
// than an application message frame.
func (f Frame) IsCommand() bool { return f.Flags&FlagCommand != 0 }

// Message is a maximal sequence of frames with MORE=1 on all but the
// last (spec.md §3 "Multipart message").
type Message []Frame

// IsComplete reports whether the last frame in the sequence terminates
// the message (MORE=0).
func (m Message) IsComplete() bool {
	return len(m) > 0 && !m[len(m)-1].More()
}
