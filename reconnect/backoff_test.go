package reconnect_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/reconnect"
)

func TestBackoffNeverExceedsMax(t *testing.T) {
	b := reconnect.New(reconnect.Policy{Initial: 10 * time.Millisecond, Max: 50 * time.Millisecond, Multiplier: 2})
	for i := 0; i < 20; i++ {
		d := b.Next()
		require.LessOrEqual(t, d, 50*time.Millisecond)
		require.GreaterOrEqual(t, d, time.Duration(0))
	}
	require.Equal(t, 20, b.Attempt())
}

func TestBackoffResetRestartsSchedule(t *testing.T) {
	b := reconnect.New(reconnect.DefaultPolicy())
	b.Next()
	b.Next()
	require.Equal(t, 2, b.Attempt())
	b.Reset()
	require.Equal(t, 0, b.Attempt())
}

func TestEndpointSetPreservesOrderAndDedupes(t *testing.T) {
	var s reconnect.EndpointSet
	require.True(t, s.Add("tcp://a:1"))
	require.True(t, s.Add("tcp://b:2"))
	require.False(t, s.Add("tcp://a:1"))
	require.Equal(t, []string{"tcp://a:1", "tcp://b:2"}, s.All())

	s.Remove("tcp://a:1")
	require.Equal(t, []string{"tcp://b:2"}, s.All())
	require.Equal(t, 1, s.Len())
}
