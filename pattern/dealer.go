// File: pattern/dealer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pattern

import (
	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/subscription"
	"github.com/vorjdux/monocoque/wire"
)

// Dealer load-balances outgoing messages round-robin across its
// connected peers and fairly interleaves incoming messages among them
// (spec.md §4.6 DEALER).
type Dealer struct {
	peerSet
	rrRecv int
}

// NewDealer constructs an empty Dealer; peers are attached with AddPeer
// as connections complete their handshake.
func NewDealer() *Dealer { return &Dealer{} }

// AddPeer registers a newly handshaken connection.
func (d *Dealer) AddPeer(p *Peer) { d.add(p) }

// RemovePeer drops a disconnected peer.
func (d *Dealer) RemovePeer(h subscription.PeerHandle) { d.remove(h) }

// Send round-robins frames to the next ready peer.
func (d *Dealer) Send(frames [][]byte) error {
	p := d.next()
	if p == nil {
		return errNoPeers
	}
	if err := ensureConnected(p); err != nil {
		return err
	}
	return p.Base.Send(frames)
}

// Recv fairly polls peers in round-robin order for the next available
// message, returning WouldBlock only once every peer has been tried
// without success within this call.
func (d *Dealer) Recv() (wire.Message, error) {
	all := d.all()
	if len(all) == 0 {
		return nil, errNoPeers
	}
	for i := 0; i < len(all); i++ {
		idx := (d.rrRecv + i) % len(all)
		if err := ensureConnected(all[idx]); err != nil {
			continue
		}
		ev, err := all[idx].Base.TryRecvFrame()
		if err == nil && ev.Kind == session.EventMessage {
			d.rrRecv = (idx + 1) % len(all)
			return ev.Message, nil
		}
		if err != nil && err != api.ErrWouldBlock {
			continue
		}
	}
	return nil, api.ErrWouldBlock
}
