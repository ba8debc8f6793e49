// File: subscription/index.go
// Package subscription implements the sorted prefix table of spec.md
// §4.7: binary-searched on subscribe/unsubscribe, linear-scanned with
// early termination on match, deduplicating matched peers across
// overlapping prefixes without allocating in the common single-match
// case.
//
// Grounded on the teacher's pool.BufferRing / api.Ring small-FIFO idiom
// for the on-stack set, and on github.com/eapache/queue (already a
// teacher dependency, pool/slab_pool.go's sibling packages use it
// transitively through core/concurrency) for the overflow path once a
// topic matches more peers than fit on the stack.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package subscription

import (
	"sort"

	"github.com/eapache/queue"
)

// PeerHandle identifies a subscriber connection by a monotonic
// connection id plus an epoch, per spec.md §9 design notes — handles,
// not pointers, so a PUB socket resolving a handle to a send queue at
// fanout time never holds a stale strong reference across a subscriber
// disconnect/reconnect.
type PeerHandle struct {
	ConnID uint64
	Epoch  uint32
}

type entry struct {
	prefix string
	peers  map[PeerHandle]struct{}
}

// Index is the sorted prefix table. Not safe for concurrent use — it is
// mutated only from the single-threaded PUB/XPUB fanout path (spec.md §5).
type Index struct {
	entries []entry
}

// Subscribe registers peer as interested in topics with the given
// prefix. Returns true if this is the first subscriber of prefix
// overall — XPUB's verbose mode (spec.md §6.4) uses this to decide
// whether a duplicate subscription from a second peer should still be
// surfaced to the application.
func (ix *Index) Subscribe(prefix string, peer PeerHandle) bool {
	i, found := ix.locate(prefix)
	if !found {
		e := entry{prefix: prefix, peers: map[PeerHandle]struct{}{peer: {}}}
		ix.entries = append(ix.entries, entry{})
		copy(ix.entries[i+1:], ix.entries[i:])
		ix.entries[i] = e
		return true
	}
	ix.entries[i].peers[peer] = struct{}{}
	return false
}

// Unsubscribe removes peer's interest in prefix. If peer was the last
// subscriber of that exact prefix, the entry is removed.
func (ix *Index) Unsubscribe(prefix string, peer PeerHandle) {
	i, found := ix.locate(prefix)
	if !found {
		return
	}
	delete(ix.entries[i].peers, peer)
	if len(ix.entries[i].peers) == 0 {
		ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
	}
}

// RemovePeer drops peer from every prefix it subscribed to — used on
// disconnect so a stale handle can never resolve to a live send queue.
func (ix *Index) RemovePeer(peer PeerHandle) {
	out := ix.entries[:0]
	for _, e := range ix.entries {
		delete(e.peers, peer)
		if len(e.peers) > 0 {
			out = append(out, e)
		}
	}
	ix.entries = out
}

// Len returns the number of distinct subscribed prefixes currently
// held, regardless of how many peers share each one — the "subscription
// table size" a debug probe reports (spec.md's supplemented
// introspection feature).
func (ix *Index) Len() int { return len(ix.entries) }

// locate returns the index at which prefix is or should be inserted,
// and whether it is already present (binary search, §4.7).
func (ix *Index) locate(prefix string) (int, bool) {
	i := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].prefix >= prefix
	})
	if i < len(ix.entries) && ix.entries[i].prefix == prefix {
		return i, true
	}
	return i, false
}

// smallSetCap is the number of peer handles the common case (a topic
// matching one or two overlapping prefixes) can dedupe without
// allocating a map or queue.
const smallSetCap = 4

// Match returns the deduplicated set of peers whose subscription prefix
// is a lexicographic prefix of topic (spec.md §4.7 and §8). The scan
// stops as soon as an entry's prefix lexicographically exceeds topic.
func (ix *Index) Match(topic string) []PeerHandle {
	var small [smallSetCap]PeerHandle
	n := 0
	var overflow *queue.Queue
	seen := func(h PeerHandle) bool {
		for i := 0; i < n; i++ {
			if small[i] == h {
				return true
			}
		}
		if overflow != nil {
			for i := 0; i < overflow.Length(); i++ {
				if overflow.Get(i).(PeerHandle) == h {
					return true
				}
			}
		}
		return false
	}
	add := func(h PeerHandle) {
		if seen(h) {
			return
		}
		if n < smallSetCap {
			small[n] = h
			n++
			return
		}
		if overflow == nil {
			overflow = queue.New()
		}
		overflow.Add(h)
	}

	for _, e := range ix.entries {
		if e.prefix > topic {
			break
		}
		if len(topic) < len(e.prefix) || topic[:len(e.prefix)] != e.prefix {
			continue
		}
		for p := range e.peers {
			add(p)
		}
	}

	out := make([]PeerHandle, 0, n+intOrZero(overflow))
	out = append(out, small[:n]...)
	if overflow != nil {
		for i := 0; i < overflow.Length(); i++ {
			out = append(out, overflow.Get(i).(PeerHandle))
		}
	}
	return out
}

func intOrZero(q *queue.Queue) int {
	if q == nil {
		return 0
	}
	return q.Length()
}
