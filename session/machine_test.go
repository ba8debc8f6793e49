package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/security"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/wire"
)

func TestNullHandshakeBothSidesReachActive(t *testing.T) {
	client, clientGreeting := session.New(session.Config{
		SocketType: "DEALER",
		AsServer:   false,
		Mechanism:  security.NewNull(),
	})
	server, serverGreeting := session.New(session.Config{
		SocketType: "ROUTER",
		AsServer:   true,
		Mechanism:  security.NewNull(),
	})

	// Exchange greetings.
	_, out, err := client.OnBytes(serverGreeting)
	require.NoError(t, err)
	_, out2, err := server.OnBytes(clientGreeting)
	require.NoError(t, err)

	// Exchange READY frames produced by entering ExchangeHandshake.
	events, out3, err := server.OnBytes(out)
	require.NoError(t, err)
	events2, _, err := client.OnBytes(out2)
	require.NoError(t, err)
	require.Empty(t, out3) // server already saw client's READY and sent its own inline

	foundServerDone := false
	for _, e := range events {
		if e.Kind == session.EventHandshakeComplete {
			foundServerDone = true
			v, ok := e.Metadata.Get(wire.SocketTypeProperty)
			require.True(t, ok)
			require.Equal(t, "DEALER", string(v))
		}
	}
	require.True(t, foundServerDone)

	foundClientDone := false
	for _, e := range events2 {
		if e.Kind == session.EventHandshakeComplete {
			foundClientDone = true
			v, ok := e.Metadata.Get(wire.SocketTypeProperty)
			require.True(t, ok)
			require.Equal(t, "ROUTER", string(v))
		}
	}
	require.True(t, foundClientDone)

	require.Equal(t, session.Active, client.State())
	require.Equal(t, session.Active, server.State())
}

func TestMismatchedMechanismFailsHandshake(t *testing.T) {
	client, _ := session.New(session.Config{SocketType: "DEALER", Mechanism: security.NewNull()})
	server, serverGreeting := session.New(session.Config{
		SocketType: "DEALER",
		Mechanism:  security.NewPlainServer("d", nil),
	})
	_ = server

	_, _, err := client.OnBytes(serverGreeting)
	require.Error(t, err)
	require.Equal(t, session.Closed, client.State())
}

func TestActiveStateAssemblesMultipart(t *testing.T) {
	c, cg := session.New(session.Config{SocketType: "DEALER", Mechanism: security.NewNull()})
	s, sg := session.New(session.Config{SocketType: "ROUTER", Mechanism: security.NewNull()})
	_, o1, err := c.OnBytes(sg)
	require.NoError(t, err)
	_, o2, err := s.OnBytes(cg)
	require.NoError(t, err)
	_, _, err = s.OnBytes(o1)
	require.NoError(t, err)
	_, _, err = c.OnBytes(o2)
	require.NoError(t, err)
	require.Equal(t, session.Active, c.State())
	require.Equal(t, session.Active, s.State())

	var wireBytes []byte
	wireBytes, err = c.EncodeOutgoing(wireBytes, [][]byte{[]byte("abc"), []byte("def")})
	require.NoError(t, err)

	events, _, err := s.OnBytes(wireBytes)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, session.EventMessage, events[0].Kind)
	require.Len(t, events[0].Message, 2)
	require.Equal(t, "abc", string(events[0].Message[0].Payload.Bytes()))
	require.Equal(t, "def", string(events[0].Message[1].Payload.Bytes()))
}
