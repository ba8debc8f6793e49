package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/wire"
)

func TestGreetingRoundTrip(t *testing.T) {
	g := wire.Greeting{Major: 3, Minor: 1, Mechanism: "NULL", AsServer: true}
	buf := wire.EncodeGreeting(g)
	require.Len(t, buf, wire.GreetingLen)

	decoded, err := wire.DecodeGreeting(buf[:])
	require.NoError(t, err)
	require.Equal(t, g, decoded)
}

func TestGreetingScenarioFromSpec(t *testing.T) {
	raw := make([]byte, 64)
	raw[0] = 0xff
	raw[9] = 0x7f
	raw[10] = 3
	raw[11] = 1
	copy(raw[12:], []byte("NULL"))

	g, err := wire.DecodeGreeting(raw)
	require.NoError(t, err)
	require.Equal(t, byte(3), g.Major)
	require.Equal(t, "NULL", g.Mechanism)
}

func TestDecodeGreetingRejectsBadSignature(t *testing.T) {
	raw := make([]byte, 64)
	raw[0] = 0x00 // wrong
	_, err := wire.DecodeGreeting(raw)
	require.Error(t, err)
}

func TestDecodeGreetingRejectsOldVersion(t *testing.T) {
	raw := make([]byte, 64)
	raw[0] = 0xff
	raw[9] = 0x7f
	raw[10] = 2 // below 3
	_, err := wire.DecodeGreeting(raw)
	require.Error(t, err)
}

func TestMetadataRoundTrip(t *testing.T) {
	md := wire.Metadata{
		{Name: wire.SocketTypeProperty, Value: []byte("DEALER")},
		{Name: "X-App", Value: []byte("demo")},
	}
	var dst []byte
	dst = wire.EncodeMetadata(dst, md)

	decoded, err := wire.DecodeMetadata(dst)
	require.NoError(t, err)
	require.Equal(t, md, decoded)

	v, ok := decoded.Get(wire.SocketTypeProperty)
	require.True(t, ok)
	require.Equal(t, "DEALER", string(v))
}

func TestSubscriptionFrameEncoding(t *testing.T) {
	sub := wire.EncodeSubscribe("weather.")
	topic, isSub, ok := wire.DecodeSubscription(sub)
	require.True(t, ok)
	require.True(t, isSub)
	require.Equal(t, "weather.", topic)

	cancel := wire.EncodeCancel("weather.")
	topic, isSub, ok = wire.DecodeSubscription(cancel)
	require.True(t, ok)
	require.False(t, isSub)
	require.Equal(t, "weather.", topic)
}
