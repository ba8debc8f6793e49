// File: wire/greeting.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wire

import (
	"bytes"

	"github.com/vorjdux/monocoque/api"
)

// GreetingLen is the fixed 64-byte ZMTP greeting length (spec.md §6.1).
const GreetingLen = 64

var signaturePrefix = [10]byte{0xff, 0, 0, 0, 0, 0, 0, 0, 0, 0x7f}

// Greeting is the decoded form of the 64-byte handshake preamble.
type Greeting struct {
	Major     byte
	Minor     byte
	Mechanism string // "NULL", "PLAIN", "CURVE" — zero-padded 20-byte field, trimmed
	AsServer  bool
}

// EncodeGreeting renders g into the fixed 64-byte wire form.
func EncodeGreeting(g Greeting) [GreetingLen]byte {
	var out [GreetingLen]byte
	copy(out[0:10], signaturePrefix[:])
	out[9] = 0x7f
	out[10] = g.Major
	out[11] = g.Minor
	copy(out[12:32], []byte(g.Mechanism)) // zero-padded by the zero-valued array
	if g.AsServer {
		out[32] = 1
	}
	// bytes 33-63 are the 31 filler zero bytes, already zero-valued.
	return out
}

// DecodeGreeting validates and parses a 64-byte greeting buffer.
// Accepts any major version >= 3 (spec.md §4.4); the minor version is
// recorded but never acted on (spec.md §9 open question).
func DecodeGreeting(buf []byte) (Greeting, error) {
	if len(buf) != GreetingLen {
		return Greeting{}, api.ErrHandshakeFailure.WithContext("len", len(buf))
	}
	if !bytes.Equal(buf[0:9], signaturePrefix[0:9]) || buf[9] != 0x7f {
		return Greeting{}, api.ErrHandshakeFailure.WithContext("reason", "bad signature")
	}
	major := buf[10]
	if major < 3 {
		return Greeting{}, api.ErrHandshakeFailure.WithContext("major", major)
	}
	minor := buf[11]
	mech := string(bytes.TrimRight(buf[12:32], "\x00"))
	asServer := buf[32] != 0
	return Greeting{Major: major, Minor: minor, Mechanism: mech, AsServer: asServer}, nil
}
