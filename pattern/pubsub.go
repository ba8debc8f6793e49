// File: pattern/pubsub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PUB fans a published message out to every subscriber whose prefix
// table (package subscription) matches the message's topic frame
// (spec.md §4.6, §4.7). SUB applies the inverse filter locally so an
// application using SUB never sees a non-matching message even if a
// misbehaving PUB peer ignores subscriptions.
package pattern

import (
	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/subscription"
	"github.com/vorjdux/monocoque/wire"
)

// Pub publishes to subscribers, tracking each peer's subscription set
// via SUBSCRIBE/CANCEL command frames arriving on that peer's wire.
type Pub struct {
	peerSet
	index subscription.Index
}

func NewPub() *Pub { return &Pub{} }

func (p *Pub) AddPeer(peer *Peer) { p.add(peer) }

func (p *Pub) RemovePeer(h subscription.PeerHandle) {
	p.index.RemovePeer(h)
	p.remove(h)
}

// PollSubscriptions drains any pending SUBSCRIBE/CANCEL frames from
// every peer, updating the subscription index. Call before Send to
// pick up subscriptions that arrived since the last publish (spec.md
// §4.6: PUB itself never blocks on recv, so this never waits).
func (p *Pub) PollSubscriptions() {
	for _, peer := range p.all() {
		for {
			ev, err := peer.Base.TryRecvFrame()
			if err != nil {
				break
			}
			if ev.Kind != session.EventMessage || len(ev.Message) == 0 {
				continue
			}
			topic, subscribe, ok := wire.DecodeSubscription(ev.Message[0].Payload.Bytes())
			if !ok {
				continue
			}
			if subscribe {
				p.index.Subscribe(topic, peer.Handle)
			} else {
				p.index.Unsubscribe(topic, peer.Handle)
			}
		}
	}
}

// Send publishes frames[0] as the topic to every subscriber whose
// prefix matches it.
func (p *Pub) Send(frames [][]byte) error {
	if len(frames) == 0 {
		return api.ErrProtocolViolation.WithContext("reason", "pub send requires a topic frame")
	}
	matches := p.index.Match(string(frames[0]))
	var firstErr error
	for _, h := range matches {
		peer := p.get(h)
		if peer == nil {
			continue
		}
		if err := ensureConnected(peer); err != nil && firstErr == nil {
			firstErr = err
			continue
		}
		if err := peer.Base.Send(frames); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sub subscribes to topics and filters incoming publications locally.
type Sub struct {
	peerSet
	rrRecv int
	topics []string
}

// NewSub constructs a Sub, seeding its remembered topic set from
// preSubs (spec.md §6.4 PreSubscriptions) so peers attached afterward
// are primed with them immediately via AddPeer.
func NewSub(preSubs ...string) *Sub {
	s := &Sub{}
	s.topics = append(s.topics, preSubs...)
	return s
}

// AddPeer registers a newly handshaken publisher connection and
// immediately replays every remembered subscription to it, and wires
// OnReconnect so an auto-redial re-primes the same subscriptions before
// any subsequent Recv can return (spec.md §8: "all previously declared
// SUB subscriptions are re-issued before any user recv returns").
func (s *Sub) AddPeer(p *Peer) {
	p.OnReconnect = func(p *Peer) error {
		s.PrimePeer(p)
		return nil
	}
	s.add(p)
	s.PrimePeer(p)
}

// Subscribe sends a SUBSCRIBE command frame to every connected
// publisher and remembers topic so peers connected afterward are
// primed too (spec.md §6.4 PreSubscriptions).
func (s *Sub) Subscribe(topic string) error {
	s.topics = append(s.topics, topic)
	return s.broadcastSub(wire.EncodeSubscribe(topic))
}

// Unsubscribe cancels a prior subscription.
func (s *Sub) Unsubscribe(topic string) error {
	for i, t := range s.topics {
		if t == topic {
			s.topics = append(s.topics[:i], s.topics[i+1:]...)
			break
		}
	}
	return s.broadcastSub(wire.EncodeCancel(topic))
}

func (s *Sub) broadcastSub(frame []byte) error {
	var firstErr error
	for _, p := range s.all() {
		if err := p.Base.Send([][]byte{frame}); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PrimePeer replays every remembered subscription to a newly connected
// publisher.
func (s *Sub) PrimePeer(p *Peer) {
	for _, t := range s.topics {
		_ = p.Base.Send([][]byte{wire.EncodeSubscribe(t)})
	}
}

// Recv returns the next publication matching a remembered topic
// prefix. Messages that fail to match are silently dropped (spec.md
// §4.6 SUB local filtering).
func (s *Sub) Recv() (wire.Message, error) {
	all := s.all()
	if len(all) == 0 {
		return nil, errNoPeers
	}
	for i := 0; i < len(all); i++ {
		idx := (s.rrRecv + i) % len(all)
		p := all[idx]
		if err := ensureConnected(p); err != nil {
			continue
		}
		ev, err := p.Base.TryRecvFrame()
		if err != nil {
			if err != api.ErrWouldBlock {
				continue
			}
			continue
		}
		if ev.Kind != session.EventMessage || len(ev.Message) == 0 {
			continue
		}
		if !s.matchesAny(ev.Message[0].Payload.Bytes()) {
			continue
		}
		s.rrRecv = (idx + 1) % len(all)
		return ev.Message, nil
	}
	return nil, api.ErrWouldBlock
}

func (s *Sub) matchesAny(topic []byte) bool {
	if len(s.topics) == 0 {
		return false
	}
	for _, t := range s.topics {
		if len(topic) >= len(t) && string(topic[:len(t)]) == t {
			return true
		}
	}
	return false
}
