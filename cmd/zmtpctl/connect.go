// File: cmd/zmtpctl/connect.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/control"
	"github.com/vorjdux/monocoque/security"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/socket"
	"github.com/vorjdux/monocoque/transport/tcp"
)

type connectOptions struct {
	addr       string
	socketType string
	configFile string
	timeout    time.Duration
}

func newConnectOptions() *connectOptions {
	return &connectOptions{socketType: "DEALER", timeout: 5 * time.Second}
}

// newConnectCommand dials a peer, runs the handshake, and prints a
// trace of the greeting/READY exchange — the diagnostic equivalent of
// curl -v for a ZMTP endpoint.
func newConnectCommand() *cobra.Command {
	co := newConnectOptions()
	cmd := &cobra.Command{
		Use:   "connect <tcp://host:port>",
		Short: "Dial a peer, complete the handshake, and print a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co.addr = args[0]
			return runConnect(co)
		},
	}
	cmd.Flags().StringVar(&co.socketType, "type", co.socketType, "ZMTP socket type to announce in READY")
	cmd.Flags().StringVar(&co.configFile, "config", "", "optional yaml flag file mapping to socket options")
	cmd.Flags().DurationVar(&co.timeout, "timeout", co.timeout, "dial + handshake timeout")
	return cmd
}

func runConnect(co *connectOptions) error {
	opts, socketType, err := loadOptionsFile(co.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if co.socketType != "" {
		socketType = co.socketType
	}
	opts.HandshakeTimeout = api.TimeoutAfter(co.timeout)

	dialer := tcp.Dialer{Timeout: co.timeout, KeepAlive: tcp.KeepAliveConfig{
		Enable:   opts.TCPKeepAlive,
		Count:    opts.TCPKeepAliveCount,
		Idle:     opts.TCPKeepAliveIdle,
		Interval: opts.TCPKeepAliveInterval,
	}}
	stream, err := dialer.Dial(trimScheme(co.addr))
	if err != nil {
		return fmt.Errorf("dial %s: %w", co.addr, err)
	}
	defer stream.Close()

	cfg := session.Config{
		SocketType: socketType,
		Identity:   opts.Identity,
		AsServer:   false,
		Mechanism:  security.NewNull(),
	}
	ar := arena.New(4096)
	rt := control.NewRuntime()
	base, err := socket.NewBase(stream, cfg, opts, ar, socket.WithRuntime(rt, socketType, co.addr))
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	defer base.Close()

	fmt.Printf("greeting sent to %s as %s\n", co.addr, socketType)
	ev, err := base.RecvFrame()
	if err != nil {
		return fmt.Errorf("await handshake completion: %w", err)
	}
	if ev.Kind == session.EventHandshakeComplete {
		fmt.Printf("handshake complete, peer metadata: %v\n", ev.Metadata)
	} else {
		fmt.Printf("unexpected first event kind: %v\n", ev.Kind)
	}
	base.RegisterDebugProbes(rt.Debug, "connect")
	fmt.Printf("stats: %+v\n", base.GetStats())
	return nil
}

// trimScheme strips the tcp:// prefix callers commonly include; the
// transport dialer itself takes a bare host:port.
func trimScheme(addr string) string {
	const prefix = "tcp://"
	if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
		return addr[len(prefix):]
	}
	return addr
}
