package pattern_test

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/pattern"
	"github.com/vorjdux/monocoque/security"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/socket"
	"github.com/vorjdux/monocoque/subscription"
)

// memStream is the same buffer-backed api.Stream double used across
// this module's handshake tests (socket/fake_stream_test.go), kept here
// as its own small copy so package pattern's tests don't need to import
// package socket's internal test helpers.
type memStream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	in     bytes.Buffer
	out    bytes.Buffer
	closed bool
}

func newMemStream() *memStream {
	s := &memStream{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStream) feed(b []byte) {
	s.mu.Lock()
	s.in.Write(b)
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *memStream) drainNew() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := append([]byte{}, s.out.Bytes()...)
	s.out.Reset()
	return b
}

func (s *memStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.in.Len() == 0 {
		if s.closed {
			return 0, io.EOF
		}
		s.cond.Wait()
	}
	return s.in.Read(p)
}

func (s *memStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

func (s *memStream) Close() error { s.closed = true; return nil }

func (s *memStream) SetReadDeadline(t time.Time) error  { return nil }
func (s *memStream) SetWriteDeadline(t time.Time) error { return nil }

func relay(src, dst *memStream, stop <-chan struct{}) {
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

// handshakePair builds two socket.Base instances wired to each other
// through in-memory streams and runs the handshake to completion,
// returning once both sides report Active.
func handshakePair(t *testing.T, clientType, serverType string) (*socket.Base, *socket.Base, func()) {
	t.Helper()
	cs, ss := newMemStream(), newMemStream()
	ar := arena.New(4096)
	opts := api.DefaultOptions()

	client, err := socket.NewBase(cs, session.Config{SocketType: clientType, Mechanism: security.NewNull(), MaxMsgSize: opts.MaxMsgSize}, opts, ar)
	require.NoError(t, err)
	server, err := socket.NewBase(ss, session.Config{SocketType: serverType, AsServer: true, Mechanism: security.NewNull(), MaxMsgSize: opts.MaxMsgSize}, opts, ar)
	require.NoError(t, err)

	stop := make(chan struct{})
	go relay(cs, ss, stop)
	go relay(ss, cs, stop)

	doneC := make(chan struct{})
	doneS := make(chan struct{})
	go func() { client.RecvFrame(); close(doneC) }()
	go func() { server.RecvFrame(); close(doneS) }()
	select {
	case <-doneC:
	case <-time.After(2 * time.Second):
		t.Fatal("client handshake timed out")
	}
	select {
	case <-doneS:
	case <-time.After(2 * time.Second):
		t.Fatal("server handshake timed out")
	}
	require.True(t, client.IsActive())
	require.True(t, server.IsActive())
	return client, server, func() { close(stop) }
}

func TestDealerRouterRoundTrip(t *testing.T) {
	client, server, stop := handshakePair(t, "DEALER", "ROUTER")
	defer stop()

	dealer := pattern.NewDealer()
	dealer.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 1}, Base: client})

	router := pattern.NewRouter(false, false)
	routerPeerHandle := subscription.PeerHandle{ConnID: 2}
	require.NoError(t, router.AddPeer(&pattern.Peer{Handle: routerPeerHandle, Base: server, Identity: []byte("dealer-1")}))

	require.NoError(t, dealer.Send([][]byte{[]byte("ping")}))

	var msg []byte
	require.Eventually(t, func() bool {
		m, err := router.Recv()
		if err != nil {
			return false
		}
		require.Len(t, m, 2)
		require.Equal(t, "dealer-1", string(m[0].Payload.Bytes()))
		msg = m[1].Payload.Bytes()
		return true
	}, time.Second, time.Millisecond)
	require.Equal(t, "ping", string(msg))
}

func TestPushPullRoundTrip(t *testing.T) {
	client, server, stop := handshakePair(t, "PUSH", "PULL")
	defer stop()

	push := pattern.NewPush()
	push.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 1}, Base: client})
	pull := pattern.NewPull(false)
	pull.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 2}, Base: server})

	require.NoError(t, push.Send([][]byte{[]byte("work item")}))

	require.Eventually(t, func() bool {
		m, err := pull.Recv()
		if err != nil {
			return false
		}
		require.Equal(t, "work item", string(m[0].Payload.Bytes()))
		return true
	}, time.Second, time.Millisecond)
}

func TestReqRepRoundTrip(t *testing.T) {
	client, server, stop := handshakePair(t, "REQ", "REP")
	defer stop()

	req := pattern.NewReq(false, false)
	req.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 1}, Base: client})
	rep := pattern.NewRep()
	rep.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 2}, Base: server})

	require.NoError(t, req.Send([][]byte{[]byte("question")}))

	require.Eventually(t, func() bool {
		m, err := rep.Recv()
		if err != nil {
			return false
		}
		require.Equal(t, "question", string(m[0].Payload.Bytes()))
		return true
	}, time.Second, time.Millisecond)

	require.NoError(t, rep.Send([][]byte{[]byte("answer")}))

	var reply []byte
	require.Eventually(t, func() bool {
		m, err := req.Recv()
		if err != nil {
			return false
		}
		reply = m[0].Payload.Bytes()
		return true
	}, time.Second, time.Millisecond)
	require.Equal(t, "answer", string(reply))
}

func TestReqCorrelateAcceptsEchoedReply(t *testing.T) {
	client, server, stop := handshakePair(t, "REQ", "REP")
	defer stop()

	req := pattern.NewReq(false, true)
	req.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 1}, Base: client})

	require.NoError(t, req.Send([][]byte{[]byte("question")}))

	// A REP that is not correlation-aware can still answer: it echoes
	// whatever frames it received in its reply body.
	rep := pattern.NewRep()
	rep.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 2}, Base: server})

	var request [][]byte
	require.Eventually(t, func() bool {
		m, err := rep.Recv()
		if err != nil {
			return false
		}
		for _, f := range m {
			request = append(request, f.Payload.Bytes())
		}
		return true
	}, time.Second, time.Millisecond)
	require.NoError(t, rep.Send(request))

	var reply []byte
	require.Eventually(t, func() bool {
		m, err := req.Recv()
		if err != nil {
			return false
		}
		reply = m[0].Payload.Bytes()
		return true
	}, time.Second, time.Millisecond)
	require.Equal(t, "question", string(reply))
}

func TestPubSubFanout(t *testing.T) {
	client, server, stop := handshakePair(t, "SUB", "PUB")
	defer stop()

	pub := pattern.NewPub()
	pub.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 1}, Base: server})

	sub := pattern.NewSub("topic-a")
	sub.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 2}, Base: client})

	require.Eventually(t, func() bool {
		pub.PollSubscriptions()
		return pub.Send([][]byte{[]byte("topic-a"), []byte("hello")}) == nil
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		m, err := sub.Recv()
		if err != nil {
			return false
		}
		require.Equal(t, "topic-a", string(m[0].Payload.Bytes()))
		require.Equal(t, "hello", string(m[1].Payload.Bytes()))
		return true
	}, time.Second, time.Millisecond)
}

func TestXPubXSubSubscriptionSurfacing(t *testing.T) {
	client, server, stop := handshakePair(t, "XSUB", "XPUB")
	defer stop()

	xpub := pattern.NewXPub(false, false, nil)
	xpub.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 1}, Base: server})

	xsub := pattern.NewXSub(false)
	xsub.AddPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 2}, Base: client})

	require.NoError(t, xsub.Send([][]byte{append([]byte{0x01}, []byte("topic-b")...)}))

	require.Eventually(t, func() bool {
		m, err := xpub.Recv()
		if err != nil {
			return false
		}
		require.Equal(t, byte(0x01), m[0].Payload.Bytes()[0])
		require.Equal(t, "topic-b", string(m[0].Payload.Bytes()[1:]))
		return true
	}, time.Second, time.Millisecond)

	// Redundant CANCEL for a topic never subscribed is suppressed.
	require.NoError(t, xsub.Send([][]byte{append([]byte{0x00}, []byte("never-subscribed")...)}))
	_, err := xpub.Recv()
	require.ErrorIs(t, err, api.ErrWouldBlock)
}

func TestPairRoundTrip(t *testing.T) {
	client, server, stop := handshakePair(t, "PAIR", "PAIR")
	defer stop()

	left := pattern.NewPair()
	left.SetPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 1}, Base: client})
	right := pattern.NewPair()
	right.SetPeer(&pattern.Peer{Handle: subscription.PeerHandle{ConnID: 2}, Base: server})

	require.NoError(t, left.Send([][]byte{[]byte("hi")}))

	var msg []byte
	require.Eventually(t, func() bool {
		m, err := right.Recv()
		if err != nil {
			return false
		}
		msg = m[0].Payload.Bytes()
		return true
	}, time.Second, time.Millisecond)
	require.Equal(t, "hi", string(msg))

	stats := left.GetStats()
	require.GreaterOrEqual(t, stats.FramesSent, uint64(1))
}
