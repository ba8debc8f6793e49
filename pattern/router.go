// File: pattern/router.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pattern

import (
	"fmt"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/subscription"
	"github.com/vorjdux/monocoque/wire"
)

// Router addresses peers by identity: every Recv prepends the sending
// peer's identity as the first frame, and every Send consumes that
// identity frame to pick the destination (spec.md §4.6 ROUTER).
type Router struct {
	peerSet
	rrRecv int

	// mandatory, when set, makes Send return ErrHostUnreachable for an
	// unknown identity instead of silently dropping the message
	// (spec.md §6.4 RouterMandatory).
	mandatory bool

	// handover mirrors api.Options.RouterHandover: on a colliding
	// identity, true evicts the previously connected peer and installs
	// the new one; false rejects the new connection (spec.md §4.6).
	handover bool
}

// NewRouter constructs a Router. mandatory mirrors
// api.Options.RouterMandatory, handover mirrors api.Options.RouterHandover.
func NewRouter(mandatory, handover bool) *Router {
	return &Router{mandatory: mandatory, handover: handover}
}

// AddPeer installs p, applying spec.md §4.6's duplicate-identity
// policy: a peer whose identity already belongs to a connected peer is
// either swapped in (handover) or rejected.
func (r *Router) AddPeer(p *Peer) error {
	if len(p.Identity) > 0 {
		if existing := r.getByIdentity(p.Identity); existing != nil {
			if !r.handover {
				return api.ErrProtocolViolation.
					WithContext("identity", string(p.Identity)).
					WithContext("reason", "duplicate identity, router_handover disabled")
			}
			r.remove(existing.Handle)
			_ = existing.Base.Close()
		}
	}
	r.add(p)
	return nil
}

func (r *Router) RemovePeer(h subscription.PeerHandle) { r.remove(h) }

// Send expects frames[0] to be the destination identity; the remaining
// frames are forwarded to that peer as the application message.
func (r *Router) Send(frames [][]byte) error {
	if len(frames) == 0 {
		return api.ErrProtocolViolation.WithContext("reason", "router send requires an identity frame")
	}
	dest := r.getByIdentity(frames[0])
	if dest == nil {
		if r.mandatory {
			return api.ErrHostUnreachable.WithContext("identity", string(frames[0]))
		}
		return nil
	}
	if err := ensureConnected(dest); err != nil {
		return err
	}
	return dest.Base.Send(frames[1:])
}

// Recv returns the next available message with the sending peer's
// identity prepended as frame 0.
func (r *Router) Recv() (wire.Message, error) {
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
			id := wire.Frame{Flags: 0, Payload: arena.NewViewFromBytes(identityOf(p))}
			return append(wire.Message{id}, ev.Message...), nil
		}
		if err != nil && err != api.ErrWouldBlock {
			continue
		}
	}
	return nil, api.ErrWouldBlock
}

func identityOf(p *Peer) []byte {
	if len(p.Identity) > 0 {
		return p.Identity
	}
	return []byte(fmt.Sprintf("%d.%d", p.Handle.ConnID, p.Handle.Epoch))
}
