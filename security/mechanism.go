// File: security/mechanism.go
// Package security implements the NULL, PLAIN, and CURVE ZMTP
// mechanisms of spec.md §4.4, plus the ZAP request/response shape they
// share. Security *primitives* (X25519, ChaCha20-Poly1305) are consumed
// from golang.org/x/crypto, not designed here, per spec.md §1.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package security

import "github.com/vorjdux/monocoque/wire"

// Step is what a Mechanism wants to happen next after consuming an
// incoming command frame.
type Step int

const (
	StepContinue Step = iota // more handshake frames expected
	StepDone                 // handshake complete, Active state may begin
	StepFailed               // handshake rejected; connection must close
)

// Mechanism drives one side (client or server) of a security handshake.
// It is sans-I/O: Next is handed the incoming command's body (already
// stripped of the name prefix) and returns zero or more outgoing
// command frames plus a Step.
type Mechanism interface {
	// Name is the 20-byte-padded mechanism name sent in the greeting.
	Name() string

	// Start returns the first frame(s) this side sends, if any (e.g.
	// PLAIN's client HELLO, CURVE's client HELLO). NULL, and the server
	// side of PLAIN and CURVE, return nothing here — its only exchange is the READY that
	// session.Machine itself drives.
	Start() []wire.Frame

	// Next consumes one incoming command (name + body) and returns any
	// frames to send in response, plus the resulting Step.
	Next(name string, body []byte) ([]wire.Frame, Step, error)

	// Encrypt/Decrypt apply the mechanism's per-frame transform once
	// the handshake is done (identity for NULL/PLAIN, ChaCha20-Poly1305
	// for CURVE). Frames outside the handshake always pass through
	// these before hitting the wire / after leaving it.
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}
