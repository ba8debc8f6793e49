// File: pattern/pair.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pattern

import (
	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/socket"
	"github.com/vorjdux/monocoque/wire"
)

// Pair connects exactly one peer (spec.md §4.6 PAIR): a second
// SetPeer call replaces the first, matching libzmq's "at most one
// connected peer, last one wins" PAIR behavior rather than rejecting it
// outright, since ZMTP itself has no handshake-level way to refuse a
// second TCP connection attempt before the application notices.
type Pair struct {
	peer *Peer
}

func NewPair() *Pair { return &Pair{} }

func (p *Pair) SetPeer(peer *Peer) { p.peer = peer }

func (p *Pair) Send(frames [][]byte) error {
	if p.peer == nil {
		return errNoPeers
	}
	if err := ensureConnected(p.peer); err != nil {
		return err
	}
	return p.peer.Base.Send(frames)
}

func (p *Pair) Recv() (wire.Message, error) {
	if p.peer == nil {
		return nil, errNoPeers
	}
	if err := ensureConnected(p.peer); err != nil {
		return nil, err
	}
	ev, err := p.peer.Base.RecvFrame()
	if err != nil {
		return nil, err
	}
	if ev.Kind != session.EventMessage {
		return nil, api.ErrWouldBlock
	}
	return ev.Message, nil
}

// GetStats returns the connected peer's connection counters. Pair does
// not embed peerSet (it holds at most one peer directly), so it needs
// its own GetStats rather than the peerSet-promoted one every other
// pattern type gets for free.
func (p *Pair) GetStats() socket.Stats {
	if p.peer == nil {
		return socket.Stats{}
	}
	return p.peer.Base.GetStats()
}
