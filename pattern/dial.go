// File: pattern/dial.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// AcceptPeer/DialPeer resolve a Peer's identity and wire it for
// automatic reconnection — the piece of spec.md §4.6 ROUTER identity
// assignment and §4.8 reconnection that previously only existed by hand
// in test fixtures.
package pattern

import (
	"sync/atomic"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/socket"
	"github.com/vorjdux/monocoque/subscription"
	"github.com/vorjdux/monocoque/wire"
)

var peerConnCounter uint64

func nextConnID() uint64 { return atomic.AddUint64(&peerConnCounter, 1) }

// resolveIdentity implements spec.md §4.6's ROUTER priority order:
// an application-supplied override (connect_routing_id) wins outright;
// otherwise the peer's own declared Identity READY property is used;
// otherwise an auto-generated fallback is synthesized. A peer-declared
// identity starting with 0x00 is rejected, since that leading byte is
// reserved for auto-generated identities.
func resolveIdentity(handle subscription.PeerHandle, ev session.Event, override []byte) ([]byte, error) {
	if len(override) > 0 {
		return override, nil
	}
	if declared, ok := ev.Metadata.Get(wire.IdentityProperty); ok && len(declared) > 0 {
		if declared[0] == 0x00 {
			return nil, api.ErrProtocolViolation.
				WithContext("reason", "peer-declared identity must not start with 0x00")
		}
		return declared, nil
	}
	return autoIdentity(handle), nil
}

// AcceptPeer builds a Peer around a Base whose handshake has already
// completed, given the session.Event the handshake produced (carrying
// the peer's READY metadata) and an optional identity override.
func AcceptPeer(base *socket.Base, readyEvent session.Event, override []byte) (*Peer, error) {
	handle := subscription.PeerHandle{ConnID: nextConnID(), Epoch: 1}
	id, err := resolveIdentity(handle, readyEvent, override)
	if err != nil {
		return nil, err
	}
	return &Peer{Handle: handle, Base: base, Identity: id}, nil
}

// DialPeer dials addr, drives the handshake to completion, resolves the
// resulting Peer's identity, and wires it with a ReconnectConfig so
// ensureConnected can redial it later. When opts.ProbeRouter is set, an
// empty probe frame is written immediately after the handshake
// completes (spec.md §6.4), letting a ROUTER peer see this connection
// before the application sends anything.
func DialPeer(dialer api.Dialer, addr string, cfg session.Config, opts api.Options, ar *arena.Arena, optFns ...socket.BaseOption) (*Peer, error) {
	stream, err := dialer.Dial(addr)
	if err != nil {
		return nil, err
	}
	base, err := socket.NewBase(stream, cfg, opts, ar, optFns...)
	if err != nil {
		return nil, err
	}
	ev, err := base.RecvFrame()
	if err != nil {
		return nil, err
	}
	peer, err := AcceptPeer(base, ev, opts.ConnectRoutingID)
	if err != nil {
		_ = base.Close()
		return nil, err
	}
	peer.Reconnect = &ReconnectConfig{Dialer: dialer, Addr: addr, Config: cfg}

	if opts.ProbeRouter {
		if err := base.Send([][]byte{{}}); err != nil {
			return nil, err
		}
	}
	return peer, nil
}
