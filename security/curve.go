// File: security/curve.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CURVE mechanism (spec.md §4.4): a four-message handshake — client
// HELLO (ephemeral public key + signed zero box), server WELCOME
// (ephemeral public key + cookie), client INITIATE (long-term identity +
// vouch box), server READY — followed by ChaCha20-Poly1305-encrypted
// frames keyed off the ephemeral-ephemeral X25519 shared secret, with a
// strictly increasing per-direction 64-bit nonce counter that must never
// repeat (spec.md §8 universal invariant).
//
// Primitives are consumed from golang.org/x/crypto, never hand-rolled,
// per spec.md §1: X25519 via curve25519, the handshake envelopes via
// nacl/box, the per-frame AEAD via chacha20poly1305.
package security

import (
	"crypto/rand"
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/wire"
)

// KeyPair is a Curve25519 key pair, either long-term or ephemeral.
type KeyPair struct {
	Public [32]byte
	Secret [32]byte
}

// GenerateKeyPair creates a fresh X25519 key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, sec, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: *pub, Secret: *sec}, nil
}

type curveState int

const (
	curveAwaitHello curveState = iota
	curveAwaitWelcome
	curveAwaitInitiate
	curveAwaitReady
	curveActive
)

// Curve implements both client and server sides of the CURVE mechanism.
type Curve struct {
	isServer bool

	longTerm  KeyPair
	ephemeral KeyPair

	peerLongTermPublic KeyPair // client only: the server's known public key (Public field used)
	peerEphemeralPublic [32]byte

	state curveState

	sendCounter uint64
	recvCounter uint64
	sharedKey   [32]byte
	aead        interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}

	validator Validator
	domain    string
}

// NewCurveClient builds the client side. serverPublicKey is the
// server's known long-term public key (out-of-band, e.g. configured).
func NewCurveClient(longTerm KeyPair, serverPublicKey [32]byte) (*Curve, error) {
	eph, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &Curve{
		isServer:           false,
		longTerm:           longTerm,
		ephemeral:          eph,
		peerLongTermPublic: KeyPair{Public: serverPublicKey},
		state:              curveAwaitWelcome,
	}, nil
}

// NewCurveServer builds the server side. A nil validator accepts every
// client long-term key (no ZAP ACL check).
func NewCurveServer(longTerm KeyPair, domain string, validator Validator) (*Curve, error) {
	eph, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if validator == nil {
		validator = AllowAllValidator{}
	}
	return &Curve{
		isServer:  true,
		longTerm:  longTerm,
		ephemeral: eph,
		state:     curveAwaitHello,
		validator: validator,
		domain:    domain,
	}, nil
}

func (c *Curve) Name() string { return "CURVE" }

func boxFrame(commandName string, fields ...[]byte) []byte {
	var payload []byte
	payload = wire.EncodeCommandName(payload, commandName)
	for _, f := range fields {
		payload = append(payload, f...)
	}
	return payload
}

func (c *Curve) Start() []wire.Frame {
	if c.isServer {
		return nil
	}
	// HELLO: ephemeral public key + a zero-box "signature" sealed to the
	// server's long-term public key under the client's ephemeral secret.
	var nonce [24]byte
	rand.Read(nonce[:])
	zero := make([]byte, 64)
	sealed := box.Seal(nil, zero, &nonce, &c.peerLongTermPublic.Public, &c.ephemeral.Secret)
	payload := boxFrame(wire.CommandHello, c.ephemeral.Public[:], nonce[:], sealed)
	return []wire.Frame{{Flags: wire.FlagCommand, Payload: arena.NewViewFromBytes(payload)}}
}

func (c *Curve) Next(name string, body []byte) ([]wire.Frame, Step, error) {
	if c.isServer {
		return c.nextServer(name, body)
	}
	return c.nextClient(name, body)
}

func (c *Curve) nextServer(name string, body []byte) ([]wire.Frame, Step, error) {
	switch c.state {
	case curveAwaitHello:
		if name != wire.CommandHello || len(body) < 32+24 {
			return nil, StepFailed, api.ErrHandshakeFailure.WithContext("command", name)
		}
		copy(c.peerEphemeralPublic[:], body[0:32])
		var nonce [24]byte
		copy(nonce[:], body[32:56])
		sealed := body[56:]
		if _, ok := box.Open(nil, sealed, &nonce, &c.peerEphemeralPublic, &c.longTerm.Secret); !ok {
			return nil, StepFailed, api.ErrAuthentication.WithContext("reason", "hello box open failed")
		}

		var cnonce [24]byte
		rand.Read(cnonce[:])
		cookiePlain := append(append([]byte{}, c.ephemeral.Secret[:]...), c.peerEphemeralPublic[:]...)
		cookie := box.Seal(nil, cookiePlain, &cnonce, &c.peerEphemeralPublic, &c.ephemeral.Secret)

		c.state = curveAwaitInitiate
		payload := boxFrame(wire.CommandWelcome, c.ephemeral.Public[:], cnonce[:], cookie)
		return []wire.Frame{{Flags: wire.FlagCommand, Payload: arena.NewViewFromBytes(payload)}}, StepContinue, nil

	case curveAwaitInitiate:
		if name != wire.CommandInitiate || len(body) < 32+24 {
			return nil, StepFailed, api.ErrHandshakeFailure.WithContext("command", name)
		}
		var clientLongTermPub [32]byte
		copy(clientLongTermPub[:], body[0:32])
		var nonce [24]byte
		copy(nonce[:], body[32:56])
		vouch := body[56:]
		if _, ok := box.Open(nil, vouch, &nonce, &clientLongTermPub, &c.ephemeral.Secret); !ok {
			return nil, StepFailed, api.ErrAuthentication.WithContext("reason", "vouch box open failed")
		}

		resp := c.validator.Validate(Request{
			Domain:      c.domain,
			Mechanism:   "CURVE",
			Credentials: [][]byte{clientLongTermPub[:]},
		})
		if resp.StatusCode != ZAPStatusOK {
			return nil, StepFailed, api.ErrAuthentication.WithContext("status", resp.StatusCode)
		}

		if err := c.deriveSharedKey(); err != nil {
			return nil, StepFailed, err
		}
		c.state = curveActive
		payload := boxFrame(wire.CommandReady)
		return []wire.Frame{{Flags: wire.FlagCommand, Payload: arena.NewViewFromBytes(payload)}}, StepDone, nil

	default:
		return nil, StepFailed, api.ErrHandshakeFailure.WithContext("state", "unexpected command after handshake")
	}
}

func (c *Curve) nextClient(name string, body []byte) ([]wire.Frame, Step, error) {
	switch c.state {
	case curveAwaitWelcome:
		if name != wire.CommandWelcome || len(body) < 32+24 {
			return nil, StepFailed, api.ErrHandshakeFailure.WithContext("command", name)
		}
		copy(c.peerEphemeralPublic[:], body[0:32])
		var nonce [24]byte
		copy(nonce[:], body[32:56])
		cookie := body[56:]
		if _, ok := box.Open(nil, cookie, &nonce, &c.peerEphemeralPublic, &c.ephemeral.Secret); !ok {
			return nil, StepFailed, api.ErrAuthentication.WithContext("reason", "welcome cookie open failed")
		}

		var vnonce [24]byte
		rand.Read(vnonce[:])
		vouchPlain := append(append([]byte{}, c.ephemeral.Secret[:]...), c.peerEphemeralPublic[:]...)
		vouch := box.Seal(nil, vouchPlain, &vnonce, &c.peerEphemeralPublic, &c.longTerm.Secret)

		c.state = curveAwaitReady
		payload := boxFrame(wire.CommandInitiate, c.longTerm.Public[:], vnonce[:], vouch)
		return []wire.Frame{{Flags: wire.FlagCommand, Payload: arena.NewViewFromBytes(payload)}}, StepContinue, nil

	case curveAwaitReady:
		if name != wire.CommandReady {
			return nil, StepFailed, api.ErrHandshakeFailure.WithContext("command", name)
		}
		if err := c.deriveSharedKey(); err != nil {
			return nil, StepFailed, err
		}
		c.state = curveActive
		return nil, StepDone, nil

	default:
		return nil, StepFailed, api.ErrHandshakeFailure.WithContext("state", "unexpected command after handshake")
	}
}

func (c *Curve) deriveSharedKey() error {
	shared, err := curve25519.X25519(c.ephemeral.Secret[:], c.peerEphemeralPublic[:])
	if err != nil {
		return api.ErrHandshakeFailure.WithContext("reason", err.Error())
	}
	copy(c.sharedKey[:], shared)
	aead, err := chacha20poly1305.New(c.sharedKey[:])
	if err != nil {
		return api.ErrHandshakeFailure.WithContext("reason", err.Error())
	}
	c.aead = aead
	return nil
}

// nonceFor builds the 12-byte ChaCha20-Poly1305 nonce for one frame:
// byte 0 is the direction tag, bytes 4-11 hold the big-endian message
// counter, and bytes 1-3 are zero.
func nonceFor(direction byte, counter uint64) [12]byte {
	var n [12]byte
	n[0] = direction
	binary.BigEndian.PutUint64(n[4:12], counter)
	return n
}

const (
	directionClientToServer byte = 0x01
	directionServerToClient byte = 0x02
)

func (c *Curve) myDirection() byte {
	if c.isServer {
		return directionServerToClient
	}
	return directionClientToServer
}

func (c *Curve) peerDirection() byte {
	if c.isServer {
		return directionClientToServer
	}
	return directionServerToClient
}

// Encrypt seals plaintext under the next send nonce. Returns
// ErrResourceExhausted if the 64-bit counter would wrap (spec.md §7).
func (c *Curve) Encrypt(plaintext []byte) ([]byte, error) {
	if c.aead == nil {
		return plaintext, nil // handshake not complete: NULL-equivalent passthrough
	}
	if c.sendCounter == ^uint64(0) {
		return nil, api.ErrResourceExhausted.WithContext("reason", "nonce counter exhausted")
	}
	nonce := nonceFor(c.myDirection(), c.sendCounter)
	c.sendCounter++
	return c.aead.Seal(nil, nonce[:], plaintext, nil), nil
}

// Decrypt opens ciphertext using the expected next receive nonce.
func (c *Curve) Decrypt(ciphertext []byte) ([]byte, error) {
	if c.aead == nil {
		return ciphertext, nil
	}
	nonce := nonceFor(c.peerDirection(), c.recvCounter)
	out, err := c.aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, api.ErrProtocolViolation.WithContext("reason", "curve frame auth failed")
	}
	c.recvCounter++
	return out, nil
}
