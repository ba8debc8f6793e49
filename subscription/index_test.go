package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/subscription"
)

func TestSubscribeMatchExactAndPrefix(t *testing.T) {
	var ix subscription.Index
	a := subscription.PeerHandle{ConnID: 1}
	b := subscription.PeerHandle{ConnID: 2}

	ix.Subscribe("weather", a)
	ix.Subscribe("weather.us", b)

	matches := ix.Match("weather.us.ca")
	require.Len(t, matches, 2)
	require.Contains(t, matches, a)
	require.Contains(t, matches, b)

	matches = ix.Match("sports")
	require.Empty(t, matches)
}

func TestUnsubscribeRemovesPeer(t *testing.T) {
	var ix subscription.Index
	a := subscription.PeerHandle{ConnID: 1}
	ix.Subscribe("", a)
	require.Len(t, ix.Match("anything"), 1)

	ix.Unsubscribe("", a)
	require.Empty(t, ix.Match("anything"))
}

func TestRemovePeerDropsAllPrefixes(t *testing.T) {
	var ix subscription.Index
	a := subscription.PeerHandle{ConnID: 7}
	ix.Subscribe("x", a)
	ix.Subscribe("y", a)
	ix.RemovePeer(a)
	require.Empty(t, ix.Match("x"))
	require.Empty(t, ix.Match("y"))
}

func TestMatchDedupesOverlappingPrefixesAndOverflowsPastSmallSet(t *testing.T) {
	var ix subscription.Index
	var peers []subscription.PeerHandle
	for i := 0; i < 10; i++ {
		p := subscription.PeerHandle{ConnID: uint64(i)}
		peers = append(peers, p)
		ix.Subscribe("", p)
	}
	// Also subscribe the first peer again under a more specific prefix —
	// it must not be reported twice.
	ix.Subscribe("a", peers[0])

	matches := ix.Match("abc")
	require.Len(t, matches, 10)
}
