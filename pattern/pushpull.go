// File: pattern/pushpull.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pattern

import (
	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/wire"
)

// Push round-robins messages across downstream PULL peers, skipping
// any that are currently unwritable (spec.md §4.6 PUSH).
type Push struct{ peerSet }

func NewPush() *Push { return &Push{} }

func (p *Push) AddPeer(peer *Peer) { p.add(peer) }

func (p *Push) Send(frames [][]byte) error {
	peer := p.next()
	if peer == nil {
		return errNoPeers
	}
	if err := ensureConnected(peer); err != nil {
		return err
	}
	return peer.Base.Send(frames)
}

// Pull fairly collects messages pushed from any upstream peer. When
// conflate is set, Recv drains every peer's backlog and returns only
// the most recent message seen, matching api.Options.Conflate's
// "keep only the latest" semantics.
type Pull struct {
	peerSet
	rrRecv   int
	conflate bool
}

// NewPull constructs a Pull. conflate mirrors api.Options.Conflate.
func NewPull(conflate bool) *Pull { return &Pull{conflate: conflate} }

func (p *Pull) AddPeer(peer *Peer) { p.add(peer) }

func (p *Pull) Recv() (wire.Message, error) {
	if p.conflate {
		return p.recvConflated()
	}
	all := p.all()
	if len(all) == 0 {
		return nil, errNoPeers
	}
	for i := 0; i < len(all); i++ {
		idx := (p.rrRecv + i) % len(all)
		if err := ensureConnected(all[idx]); err != nil {
			continue
		}
		ev, err := all[idx].Base.TryRecvFrame()
		if err == nil && ev.Kind == session.EventMessage {
			p.rrRecv = (idx + 1) % len(all)
			return ev.Message, nil
		}
	}
	return nil, api.ErrWouldBlock
}

// recvConflated drains every peer's available backlog non-blockingly
// and keeps only the last message seen; if nothing was queued anywhere,
// it falls back to one blocking RecvFrame on the first peer so Recv
// still honors RecvTimeout when the pipe is empty.
func (p *Pull) recvConflated() (wire.Message, error) {
	all := p.all()
	if len(all) == 0 {
		return nil, errNoPeers
	}
	var latest wire.Message
	found := false
	for _, peer := range all {
		if err := ensureConnected(peer); err != nil {
			continue
		}
		for {
			ev, err := peer.Base.TryRecvFrame()
			if err != nil {
				break
			}
			if ev.Kind == session.EventMessage {
				latest = ev.Message
				found = true
			}
		}
	}
	if found {
		return latest, nil
	}
	ev, err := all[0].Base.RecvFrame()
	if err != nil {
		return nil, err
	}
	if ev.Kind != session.EventMessage {
		return nil, api.ErrWouldBlock
	}
	return ev.Message, nil
}
