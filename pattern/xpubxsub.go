// File: pattern/xpubxsub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// XPUB/XSUB are the "raw" variants of PUB/SUB: subscription frames are
// surfaced to the application through Recv instead of being consumed
// silently, so a proxy (package proxy) can forward them upstream
// (spec.md §4.6, §4.9).
package pattern

import (
	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/subscription"
	"github.com/vorjdux/monocoque/wire"
)

// XPub is a Pub that additionally hands subscribe/unsubscribe frames to
// the application via Recv (spec.md §6.4 XPubVerbose controls whether
// duplicate subscriptions are also surfaced).
type XPub struct {
	peerSet
	index      subscription.Index
	verbose    bool
	manual     bool
	welcomeMsg []byte
	rrRecv     int
}

// NewXPub constructs an XPub. manual mirrors api.Options.XPubManual: when
// set, Recv stops mutating the subscription index automatically from
// observed SUBSCRIBE/CANCEL frames, and the application must call
// ManualSubscribe/ManualUnsubscribe itself after inspecting them
// (spec.md §6.4). welcomeMsg, when non-empty, is sent to every peer as
// soon as it attaches (spec.md §4.6).
func NewXPub(verbose, manual bool, welcomeMsg []byte) *XPub {
	return &XPub{verbose: verbose, manual: manual, welcomeMsg: welcomeMsg}
}

func (x *XPub) AddPeer(p *Peer) {
	x.add(p)
	if len(x.welcomeMsg) > 0 {
		_ = p.Base.Send([][]byte{x.welcomeMsg})
	}
}

// ManualSubscribe/ManualUnsubscribe apply an index mutation the
// application decided on after inspecting a raw subscription frame
// surfaced by Recv while XPubManual is set.
func (x *XPub) ManualSubscribe(topic string, h subscription.PeerHandle) bool {
	return x.index.Subscribe(topic, h)
}

func (x *XPub) ManualUnsubscribe(topic string, h subscription.PeerHandle) {
	x.index.Unsubscribe(topic, h)
}

func (x *XPub) RemovePeer(h subscription.PeerHandle) {
	x.index.RemovePeer(h)
	x.remove(h)
}

// Send publishes frames[0] as topic to matching subscribers, exactly
// like Pub.Send.
func (x *XPub) Send(frames [][]byte) error {
	if len(frames) == 0 {
		return api.ErrProtocolViolation.WithContext("reason", "xpub send requires a topic frame")
	}
	matches := x.index.Match(string(frames[0]))
	var firstErr error
	for _, h := range matches {
		p := x.get(h)
		if p == nil {
			continue
		}
		if err := ensureConnected(p); err != nil && firstErr == nil {
			firstErr = err
			continue
		}
		if err := p.Base.Send(frames); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Recv surfaces the next subscribe/unsubscribe frame as a one-frame
// message ([]byte{0x01}+topic or []byte{0x00}+topic). Unless XPubManual
// is set, the internal index is mutated as a side effect; application
// messages arriving on an XPUB socket (unusual but not forbidden) pass
// through unmodified.
func (x *XPub) Recv() (wire.Message, error) {
	all := x.all()
	if len(all) == 0 {
		return nil, errNoPeers
	}
	for i := 0; i < len(all); i++ {
		idx := (x.rrRecv + i) % len(all)
		p := all[idx]
		if err := ensureConnected(p); err != nil {
			continue
		}
		ev, err := p.Base.TryRecvFrame()
		if err != nil || ev.Kind != session.EventMessage || len(ev.Message) == 0 {
			continue
		}
		x.rrRecv = (idx + 1) % len(all)
		topic, subscribe, ok := wire.DecodeSubscription(ev.Message[0].Payload.Bytes())
		if ok && !x.manual {
			changed := true
			if subscribe {
				changed = x.index.Subscribe(topic, p.Handle) || x.verbose
			} else {
				x.index.Unsubscribe(topic, p.Handle)
			}
			if !changed {
				continue
			}
		}
		return ev.Message, nil
	}
	return nil, api.ErrWouldBlock
}

// XSub is a Sub that lets the application send raw subscribe/
// unsubscribe frames directly (spec.md §4.6) instead of calling a
// dedicated Subscribe method, and surfaces every publication without
// local filtering — the application is trusted to have sent the
// matching SUBSCRIBE itself.
type XSub struct {
	peerSet
	rrRecv int

	// verboseUnsubs mirrors api.Options.XSubVerboseUnsubs: false (the
	// default) suppresses a CANCEL frame for a topic this XSub never
	// sent a live SUBSCRIBE for, matching libzmq's redundant-unsubscribe
	// elision.
	verboseUnsubs bool
	sent          map[string]bool
}

// NewXSub constructs an XSub. verboseUnsubs mirrors
// api.Options.XSubVerboseUnsubs.
func NewXSub(verboseUnsubs bool) *XSub {
	return &XSub{verboseUnsubs: verboseUnsubs, sent: make(map[string]bool)}
}

func (x *XSub) AddPeer(p *Peer) { x.add(p) }

// Send transmits a raw frame (typically built with wire.EncodeSubscribe
// / wire.EncodeCancel) to every connected peer. A CANCEL for a topic
// this XSub has no live SUBSCRIBE for is dropped unless
// XSubVerboseUnsubs is set.
func (x *XSub) Send(frames [][]byte) error {
	if len(frames) > 0 {
		if topic, subscribe, ok := wire.DecodeSubscription(frames[0]); ok {
			if subscribe {
				x.sent[topic] = true
			} else {
				wasSent := x.sent[topic]
				delete(x.sent, topic)
				if !wasSent && !x.verboseUnsubs {
					return nil
				}
			}
		}
	}
	var firstErr error
	for _, p := range x.all() {
		if err := ensureConnected(p); err != nil && firstErr == nil {
			firstErr = err
			continue
		}
		if err := p.Base.Send(frames); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (x *XSub) Recv() (wire.Message, error) {
	all := x.all()
	if len(all) == 0 {
		return nil, errNoPeers
	}
	for i := 0; i < len(all); i++ {
		idx := (x.rrRecv + i) % len(all)
		if err := ensureConnected(all[idx]); err != nil {
			continue
		}
		ev, err := all[idx].Base.TryRecvFrame()
		if err == nil && ev.Kind == session.EventMessage {
			x.rrRecv = (idx + 1) % len(all)
			return ev.Message, nil
		}
	}
	return nil, api.ErrWouldBlock
}
