// File: pattern/reqrep.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pattern

import (
	"encoding/binary"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/wire"
)

// Req enforces the strict send/recv alternation of spec.md §4.6 REQ: a
// Send must be followed by exactly one Recv from the same peer before
// another Send is permitted, unless ReqRelaxed is set.
type Req struct {
	peerSet
	relaxed   bool
	correlate bool
	awaiting  bool
	lastPeer  *Peer
	nextCorr  uint32
	corrID    [4]byte
}

// NewReq constructs a Req socket. relaxed mirrors api.Options.ReqRelaxed,
// correlate mirrors api.Options.ReqCorrelate.
func NewReq(relaxed, correlate bool) *Req { return &Req{relaxed: relaxed, correlate: correlate} }

func (r *Req) AddPeer(p *Peer) { r.add(p) }

// Send picks the next ready peer round-robin and transmits frames,
// prefixed with an empty delimiter frame matching libzmq's REQ envelope
// convention (spec.md §4.6). When ReqCorrelate is set, a 4-byte
// big-endian correlation id follows the delimiter so Recv can verify
// the reply answers this exact request.
func (r *Req) Send(frames [][]byte) error {
	if r.awaiting && !r.relaxed {
		return api.ErrInvalidState.WithContext("reason", "REQ send before matching recv")
	}
	p := r.next()
	if p == nil {
		return errNoPeers
	}
	if err := ensureConnected(p); err != nil {
		return err
	}

	var out [][]byte
	if r.correlate {
		r.nextCorr++
		binary.BigEndian.PutUint32(r.corrID[:], r.nextCorr)
		out = append([][]byte{nil, append([]byte(nil), r.corrID[:]...)}, frames...)
	} else {
		out = append([][]byte{nil}, frames...)
	}
	if err := p.Base.Send(out); err != nil {
		return err
	}
	r.awaiting = true
	r.lastPeer = p
	return nil
}

// Recv waits for the reply on the peer the last Send targeted, peeling
// off the empty delimiter frame and, when ReqCorrelate is set, the
// correlation id frame — rejecting a reply whose id does not match the
// pending request.
func (r *Req) Recv() (wire.Message, error) {
	if !r.awaiting || r.lastPeer == nil {
		return nil, api.ErrInvalidState.WithContext("reason", "REQ recv without a pending send")
	}
	ev, err := r.lastPeer.Base.RecvFrame()
	if err != nil {
		return nil, err
	}
	if ev.Kind != session.EventMessage {
		return nil, api.ErrWouldBlock
	}
	r.awaiting = false
	msg := ev.Message
	if len(msg) == 0 {
		return msg, nil
	}
	msg = msg[1:]
	if r.correlate {
		if len(msg) == 0 || len(msg[0].Payload.Bytes()) != 4 {
			return nil, api.ErrProtocolViolation.WithContext("reason", "missing REQ correlation frame")
		}
		if string(msg[0].Payload.Bytes()) != string(r.corrID[:]) {
			return nil, api.ErrProtocolViolation.WithContext("reason", "REQ correlation id mismatch")
		}
		msg = msg[1:]
	}
	return msg, nil
}

// Rep answers whichever peer's request arrived, remembering the sender
// so Send routes the reply back without the application naming it
// (spec.md §4.6 REP).
type Rep struct {
	peerSet
	rrRecv    int
	lastPeer  *Peer
}

func NewRep() *Rep { return &Rep{} }

func (r *Rep) AddPeer(p *Peer) { r.add(p) }

// Recv polls peers round-robin for the next request, stripping the
// empty delimiter frame REQ prepends.
func (r *Rep) Recv() (wire.Message, error) {
	all := r.all()
	if len(all) == 0 {
		return nil, errNoPeers
	}
	for i := 0; i < len(all); i++ {
		idx := (r.rrRecv + i) % len(all)
		p := all[idx]
		if err := ensureConnected(p); err != nil {
			continue
		}
		ev, err := p.Base.TryRecvFrame()
		if err == nil && ev.Kind == session.EventMessage {
			r.rrRecv = (idx + 1) % len(all)
			r.lastPeer = p
			if len(ev.Message) > 0 {
				return ev.Message[1:], nil
			}
			return ev.Message, nil
		}
		if err != nil && err != api.ErrWouldBlock {
			continue
		}
	}
	return nil, api.ErrWouldBlock
}

// Send replies to whichever peer Recv last returned a request from.
func (r *Rep) Send(frames [][]byte) error {
	if r.lastPeer == nil {
		return api.ErrInvalidState.WithContext("reason", "REP send without a pending request")
	}
	out := append([][]byte{nil}, frames...)
	err := r.lastPeer.Base.Send(out)
	r.lastPeer = nil
	return err
}
