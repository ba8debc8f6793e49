// File: session/machine.go
// Package session implements the sans-I/O ZMTP session state machine of
// spec.md §4.4: greeting exchange, security mechanism negotiation, READY
// metadata, and the frame stream once Active. No I/O, no time, no
// clocks — OnBytes is a pure function of (current state, input bytes)
// to (events, bytes-to-write).
//
// Grounded on the teacher's internal/session.sessionImpl shape
// (cancellation, deadline, done channel) for the *lifecycle* half, and
// protocol/handshake.go's read-validate-respond shape for the
// *handshake* half — generalized from a single synchronous HTTP upgrade
// to a resumable, byte-at-a-time ZMTP handshake.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package session

import (
	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/security"
	"github.com/vorjdux/monocoque/wire"
)

// State is one of the four session states of spec.md §3.
type State int

const (
	AwaitGreeting State = iota
	ExchangeHandshake
	Active
	Closed
)

// String renders a State for debug probes and log lines.
func (s State) String() string {
	switch s {
	case AwaitGreeting:
		return "AwaitGreeting"
	case ExchangeHandshake:
		return "ExchangeHandshake"
	case Active:
		return "Active"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// EventKind distinguishes a completed multipart message from the
// handshake-complete notification.
type EventKind int

const (
	EventHandshakeComplete EventKind = iota
	EventMessage
)

// Event is what OnBytes hands upward.
type Event struct {
	Kind     EventKind
	Message  wire.Message  // valid when Kind == EventMessage
	Metadata wire.Metadata // valid when Kind == EventHandshakeComplete: the peer's READY properties
}

// Config carries what the local side announces in its greeting and READY.
type Config struct {
	SocketType string // one of DEALER, ROUTER, REQ, REP, PUB, SUB, XPUB, XSUB, PUSH, PULL, PAIR
	Identity   []byte
	AsServer   bool
	Mechanism  security.Mechanism
	MaxMsgSize int64
}

// Machine is the sans-I/O ZMTP session driver.
type Machine struct {
	cfg   Config
	state State

	in  arena.SegmentedBuffer
	out []byte

	mechanismDone bool
	readySent     bool
	readyReceived bool

	pending wire.Message

	peerMetadata wire.Metadata

	greetingSent bool
}

// New constructs a Machine and returns the bytes it wants written
// immediately (spec.md §4.4: "the greeting is sent eagerly on
// construction").
func New(cfg Config) (*Machine, []byte) {
	m := &Machine{cfg: cfg, state: AwaitGreeting}
	g := wire.EncodeGreeting(wire.Greeting{
		Major:     3,
		Minor:     1,
		Mechanism: cfg.Mechanism.Name(),
		AsServer:  cfg.AsServer,
	})
	m.greetingSent = true
	return m, g[:]
}

// State returns the current session state.
func (m *Machine) State() State { return m.state }

// isNullMechanism reports whether mech is NULL, whose mechanism exchange
// is empty, so the handshake begins with it "already done".
func isNullMechanism(mech security.Mechanism) bool {
	_, ok := mech.(*security.Null)
	return ok
}

// OnBytes feeds newly received bytes into the machine and drives it as
// far forward as the buffered data allows. It may be called with a
// zero-length input purely to flush out any writes still pending from
// a prior transition (e.g. the handshake's Start() frames).
func (m *Machine) OnBytes(input []byte) ([]Event, []byte, error) {
	if len(input) > 0 {
		m.in.Push(arena.NewViewFromBytes(input))
	}

	var events []Event
	m.out = m.out[:0]

	for {
		switch m.state {
		case AwaitGreeting:
			progressed, err := m.stepGreeting()
			if err != nil {
				m.state = Closed
				return events, m.out, err
			}
			if !progressed {
				return events, m.out, nil
			}

		case ExchangeHandshake:
			progressed, newEvents, err := m.stepHandshake()
			events = append(events, newEvents...)
			if err != nil {
				m.state = Closed
				return events, m.out, err
			}
			if !progressed {
				return events, m.out, nil
			}

		case Active:
			progressed, newEvents, err := m.stepActive()
			events = append(events, newEvents...)
			if err != nil {
				m.state = Closed
				return events, m.out, err
			}
			if !progressed {
				return events, m.out, nil
			}

		case Closed:
			return events, m.out, api.ErrConnectionClosed
		}
	}
}

func (m *Machine) stepGreeting() (bool, error) {
	raw := m.in.Peek(wire.GreetingLen)
	if raw == nil {
		return false, nil
	}
	g, err := wire.DecodeGreeting(raw)
	if err != nil {
		return false, err
	}
	m.in.Consume(wire.GreetingLen)

	if g.Mechanism != m.cfg.Mechanism.Name() {
		return false, api.ErrHandshakeFailure.WithContext("reason", "mismatched mechanism").
			WithContext("peer", g.Mechanism).WithContext("local", m.cfg.Mechanism.Name())
	}

	m.state = ExchangeHandshake

	if isNullMechanism(m.cfg.Mechanism) {
		m.mechanismDone = true
	} else {
		startFrames := m.cfg.Mechanism.Start()
		m.encodeFrames(startFrames)
	}
	return true, nil
}

func (m *Machine) stepHandshake() (bool, []Event, error) {
	if !m.mechanismDone {
		f, ok, err := wire.DecodeFrame(&m.in, m.cfg.MaxMsgSize)
		if err != nil {
			return false, nil, err
		}
		if !ok {
			// No mechanism frame buffered yet; still try to send our own
			// READY below if mechanism finished via Start() alone (never
			// happens for the mechanisms implemented, but keeps the loop
			// from stalling if it ever does).
			return m.maybeSendReady(), nil, nil
		}
		name, body, err := wire.DecodeCommandName(f.Payload.Bytes())
		if err != nil {
			return false, nil, err
		}
		respFrames, step, err := m.cfg.Mechanism.Next(name, body)
		m.encodeFrames(respFrames)
		if err != nil {
			return false, nil, err
		}
		if step == security.StepFailed {
			return false, nil, api.ErrAuthentication
		}
		if step == security.StepDone {
			m.mechanismDone = true
		}
		m.maybeSendReady()
		return true, nil, nil
	}

	progressed := m.maybeSendReady()

	f, ok, err := wire.DecodeFrame(&m.in, m.cfg.MaxMsgSize)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return progressed, nil, nil
	}
	name, body, err := wire.DecodeCommandName(f.Payload.Bytes())
	if err != nil {
		return false, nil, err
	}
	if name != wire.CommandReady {
		return false, nil, api.ErrHandshakeFailure.WithContext("command", name)
	}
	md, err := wire.DecodeMetadata(body)
	if err != nil {
		return false, nil, err
	}
	m.peerMetadata = md
	m.readyReceived = true

	if m.readySent && m.readyReceived {
		m.state = Active
		return true, []Event{{Kind: EventHandshakeComplete, Metadata: md}}, nil
	}
	return true, nil, nil
}

func (m *Machine) maybeSendReady() bool {
	if m.readySent || !m.mechanismDone {
		return false
	}
	md := wire.Metadata{{Name: wire.SocketTypeProperty, Value: []byte(m.cfg.SocketType)}}
	if len(m.cfg.Identity) > 0 {
		md = append(md, wire.MetadataPair{Name: wire.IdentityProperty, Value: m.cfg.Identity})
	}
	payload := wire.EncodeReady(md)
	m.out = wire.EncodeFrame(m.out, payload, false, true)
	m.readySent = true

	if m.readySent && m.readyReceived {
		m.state = Active
	}
	return true
}

func (m *Machine) stepActive() (bool, []Event, error) {
	f, ok, err := wire.DecodeFrame(&m.in, m.cfg.MaxMsgSize)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	if f.IsCommand() {
		// Heartbeats (PING/PONG) are enumerated but never activated
		// (spec.md §9 open question); any other command mid-stream is
		// silently ignored rather than treated as a protocol violation,
		// matching the permissive posture spec.md describes for peers
		// that deviate from the minimal subset this core emits.
		return true, nil, nil
	}

	plain, err := m.cfg.Mechanism.Decrypt(f.Payload.Bytes())
	if err != nil {
		return false, nil, err
	}
	more := f.More()
	m.pending = append(m.pending, wire.Frame{Flags: f.Flags, Payload: arena.NewViewFromBytes(plain)})
	if more {
		return true, nil, nil
	}
	msg := m.pending
	m.pending = nil
	return true, []Event{{Kind: EventMessage, Message: msg}}, nil
}

// EncodeOutgoing applies the mechanism's per-frame transform and the
// wire frame codec to an application-level multipart message, appending
// the result to dst. Valid only once the machine has reached Active.
func (m *Machine) EncodeOutgoing(dst []byte, frames [][]byte) ([]byte, error) {
	for i, payload := range frames {
		more := i < len(frames)-1
		ct, err := m.cfg.Mechanism.Encrypt(payload)
		if err != nil {
			return dst, err
		}
		dst = wire.EncodeFrame(dst, ct, more, false)
	}
	return dst, nil
}

func (m *Machine) encodeFrames(frames []wire.Frame) {
	for _, f := range frames {
		m.out = wire.EncodeFrame(m.out, f.Payload.Bytes(), false, true)
	}
}
