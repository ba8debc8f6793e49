package socket_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/security"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/socket"
)

// relay continuously forwards newly written bytes from src to dst until
// stop is closed, standing in for the kernel actually moving bytes
// between two dialed sockets.
func relay(src, dst *pipeStream, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if b := src.drainNew(); len(b) > 0 {
			dst.feed(b)
		}
		time.Sleep(time.Millisecond)
	}
}

func recvAsync(b *socket.Base) <-chan recvResult {
	ch := make(chan recvResult, 1)
	go func() {
		ev, err := b.RecvFrame()
		ch <- recvResult{ev, err}
	}()
	return ch
}

type recvResult struct {
	event session.Event
	err   error
}

func TestBaseHandshakeAndMessageRoundTrip(t *testing.T) {
	clientStream := newPipeStream()
	serverStream := newPipeStream()

	ar := arena.New(4096)
	opts := api.DefaultOptions()

	client, err := socket.NewBase(clientStream, session.Config{
		SocketType: "DEALER", Mechanism: security.NewNull(), MaxMsgSize: opts.MaxMsgSize,
	}, opts, ar)
	require.NoError(t, err)

	server, err := socket.NewBase(serverStream, session.Config{
		SocketType: "ROUTER", AsServer: true, Mechanism: security.NewNull(), MaxMsgSize: opts.MaxMsgSize,
	}, opts, ar)
	require.NoError(t, err)

	stop := make(chan struct{})
	defer close(stop)
	go relay(clientStream, serverStream, stop)
	go relay(serverStream, clientStream, stop)

	clientCh := recvAsync(client)
	serverCh := recvAsync(server)

	var clientRes, serverRes recvResult
	select {
	case clientRes = <-clientCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client handshake event")
	}
	select {
	case serverRes = <-serverCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server handshake event")
	}

	require.NoError(t, clientRes.err)
	require.NoError(t, serverRes.err)
	require.Equal(t, session.EventHandshakeComplete, clientRes.event.Kind)
	require.Equal(t, session.EventHandshakeComplete, serverRes.event.Kind)
	require.True(t, client.IsActive())
	require.True(t, server.IsActive())

	err = client.SendBuffered([][]byte{[]byte("hello"), []byte("world")})
	require.NoError(t, err)
	require.NoError(t, client.Flush())

	serverCh = recvAsync(server)
	select {
	case serverRes = <-serverCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	require.NoError(t, serverRes.err)
	require.Equal(t, session.EventMessage, serverRes.event.Kind)
	require.Len(t, serverRes.event.Message, 2)
	require.Equal(t, "hello", string(serverRes.event.Message[0].Payload.Bytes()))
	require.Equal(t, "world", string(serverRes.event.Message[1].Payload.Bytes()))
}

// TestSendBufferedHonorsHighWaterMark asserts spec.md §8's testable
// invariant: at most SendHWM buffered messages accumulate unflushed,
// and the (H+1)th SendBuffered call returns ErrWouldBlock rather than
// growing the queue without bound.
func TestSendBufferedHonorsHighWaterMark(t *testing.T) {
	clientStream := newPipeStream()
	ar := arena.New(4096)
	opts := api.DefaultOptions()
	opts.SendHWM = 2

	client, err := socket.NewBase(clientStream, session.Config{
		SocketType: "DEALER", Mechanism: security.NewNull(), MaxMsgSize: opts.MaxMsgSize,
	}, opts, ar)
	require.NoError(t, err)

	require.NoError(t, client.SendBuffered([][]byte{[]byte("one")}))
	require.NoError(t, client.SendBuffered([][]byte{[]byte("two")}))

	err = client.SendBuffered([][]byte{[]byte("three")})
	require.ErrorIs(t, err, api.ErrWouldBlock)
	require.Equal(t, 2, client.GetStats().SendQueueLen)

	require.NoError(t, client.Flush())
	require.Equal(t, 0, client.GetStats().SendQueueLen)

	require.NoError(t, client.SendBuffered([][]byte{[]byte("four")}))
	require.Equal(t, 1, client.GetStats().SendQueueLen)
}
