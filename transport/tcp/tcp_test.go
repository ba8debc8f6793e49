package tcp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/transport/tcp"
)

func TestListenDialRoundTrip(t *testing.T) {
	ln, err := tcp.Listen(tcp.ListenerConfig{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	defer ln.Close()

	acceptedCh := make(chan error, 1)
	go func() {
		s, err := ln.Accept()
		if err != nil {
			acceptedCh <- err
			return
		}
		buf := make([]byte, 5)
		_, err = s.Read(buf)
		if err != nil {
			acceptedCh <- err
			return
		}
		_, err = s.Write(buf)
		acceptedCh <- err
	}()

	d := tcp.Dialer{Timeout: 2 * time.Second}
	client, err := d.Dial(ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("hello"))
	require.NoError(t, err)

	reply := make([]byte, 5)
	_, err = client.Read(reply)
	require.NoError(t, err)
	require.Equal(t, "hello", string(reply))
	require.NoError(t, <-acceptedCh)
}
