// File: pattern/peerset.go
// Package pattern implements the eleven socket patterns of spec.md §4.6 on
// top of socket.Base: DEALER, ROUTER, REQ, REP, PUB, SUB, XPUB, XSUB,
// PUSH, PULL, PAIR. Each pattern owns a set of peer connections and
// applies its own send/receive fan-out discipline over socket.Base's
// primitive RecvFrame/SendBuffered.
//
// Grounded on the teacher's server.Serve accept-loop (one goroutine per
// accepted connection, fanning into a shared handler) generalized from
// an HTTP upgrade handler into the per-pattern routing rules spec.md
// describes. The round-robin peer cursor DEALER/PUSH/PULL use is a plain
// index into the peer list.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pattern

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/socket"
	"github.com/vorjdux/monocoque/subscription"
)

// ReconnectConfig carries what ensureConnected needs to redial a peer
// whose Base has gone poisoned or closed: the dialer and address to
// reconnect to, and the session.Config to re-announce during the new
// handshake (spec.md §4.8's automatic reconnection driver).
type ReconnectConfig struct {
	Dialer api.Dialer
	Addr   string
	Config session.Config
}

// Peer is one connected link a pattern fans in/out over.
type Peer struct {
	Handle   subscription.PeerHandle
	Base     *socket.Base
	Identity []byte // peer-declared or ROUTER-assigned (spec.md §4.6 ROUTER)

	// Reconnect, when non-nil, lets ensureConnected redial this peer
	// automatically once its Base goes poisoned or closed.
	Reconnect *ReconnectConfig

	// OnReconnect runs once a redial succeeds, before control returns to
	// the caller — Sub uses it to replay PrimePeer so "all previously
	// declared SUB subscriptions are re-issued before any user recv
	// returns" (spec.md §8) actually holds outside of tests.
	OnReconnect func(*Peer) error
}

// ensureConnected redials p if it carries a ReconnectConfig and its
// Base has gone poisoned or closed, first waiting out the Base's next
// backoff delay, then runs OnReconnect. A peer with
// no ReconnectConfig is left untouched — callers still see
// ErrConnectionPoisoned/ErrConnectionClosed from their own Send/Recv.
func ensureConnected(p *Peer) error {
	if p.Reconnect == nil {
		return nil
	}
	if !p.Base.IsPoisoned() && !p.Base.IsClosed() {
		return nil
	}
	time.Sleep(p.Base.NextBackoff())
	if err := p.Base.TryReconnect(p.Reconnect.Dialer, p.Reconnect.Addr, p.Reconnect.Config); err != nil {
		return err
	}
	if p.OnReconnect != nil {
		return p.OnReconnect(p)
	}
	return nil
}

// autoIdentity synthesizes a ROUTER-assigned identity for a peer that
// declared none. spec.md §4.6 requires a leading 0x00 byte on any
// auto-generated identity — the same byte that is disallowed in a
// peer-declared one, so the two can never collide.
func autoIdentity(handle subscription.PeerHandle) []byte {
	id := make([]byte, 9)
	binary.BigEndian.PutUint64(id[1:], handle.ConnID)
	return id
}

// peerSet is the shared bookkeeping every pattern except Pair embeds: the live peer
// list plus a round-robin cursor, protected by one mutex since pattern
// methods are called from the application's single calling goroutine
// per spec.md §5 (sockets are not meant to be shared across goroutines
// without external synchronization, matching libzmq's own contract).
type peerSet struct {
	mu     sync.Mutex
	peers  []*Peer
	cursor int
}

func (s *peerSet) add(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers = append(s.peers, p)
}

func (s *peerSet) remove(handle subscription.PeerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.peers {
		if p.Handle == handle {
			s.peers = append(s.peers[:i], s.peers[i+1:]...)
			if s.cursor > i {
				s.cursor--
			}
			return
		}
	}
}

func (s *peerSet) getByIdentity(id []byte) *Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.peers {
		if string(p.Identity) == string(id) {
			return p
		}
	}
	return nil
}

func (s *peerSet) get(handle subscription.PeerHandle) *Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.peers {
		if p.Handle == handle {
			return p
		}
	}
	return nil
}

func (s *peerSet) all() []*Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Peer, len(s.peers))
	copy(out, s.peers)
	return out
}

// next returns the next live, non-poisoned peer in round-robin order
// (spec.md §4.6: DEALER/PUSH load-balance across ready peers), skipping
// at most len(peers) candidates before giving up.
func (s *peerSet) next() *Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.peers)
	for i := 0; i < n; i++ {
		idx := (s.cursor + i) % n
		p := s.peers[idx]
		if !p.Base.IsPoisoned() {
			s.cursor = (idx + 1) % n
			return p
		}
	}
	return nil
}

func (s *peerSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// GetStats aggregates every member peer's connection counters. Every
// pattern type except Pair embeds peerSet anonymously, so this single
// method promotes a GetStats() call onto those ten; Pair has its own.
func (s *peerSet) GetStats() socket.Stats {
	s.mu.Lock()
	peers := make([]*Peer, len(s.peers))
	copy(peers, s.peers)
	s.mu.Unlock()

	var out socket.Stats
	for _, p := range peers {
		st := p.Base.GetStats()
		out.FramesSent += st.FramesSent
		out.FramesReceived += st.FramesReceived
		out.BytesSent += st.BytesSent
		out.BytesReceived += st.BytesReceived
		out.ReconnectAttempts += st.ReconnectAttempts
		out.SendQueueLen += st.SendQueueLen
	}
	return out
}

var errNoPeers = api.ErrResourceExhausted.WithContext("reason", "no connected peers")
