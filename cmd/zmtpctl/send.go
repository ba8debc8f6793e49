// File: cmd/zmtpctl/send.go
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

type sendOptions struct {
	addr       string
	payload    string
	socketType string
	configFile string
	timeout    time.Duration
	waitReply  bool
}

func newSendOptions() *sendOptions {
	return &sendOptions{socketType: "DEALER", timeout: 5 * time.Second}
}

// newSendCommand connects, sends exactly one single-frame message, and
// optionally waits for one reply frame before exiting.
func newSendCommand() *cobra.Command {
	so := newSendOptions()
	cmd := &cobra.Command{
		Use:   "send <tcp://host:port> <payload>",
		Short: "Connect, send one message, optionally wait for a reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			so.addr = args[0]
			so.payload = args[1]
			return runSend(so)
		},
	}
	cmd.Flags().StringVar(&so.socketType, "type", so.socketType, "ZMTP socket type to announce in READY")
	cmd.Flags().StringVar(&so.configFile, "config", "", "optional yaml flag file mapping to socket options")
	cmd.Flags().DurationVar(&so.timeout, "timeout", so.timeout, "dial + handshake timeout")
	cmd.Flags().BoolVar(&so.waitReply, "wait-reply", false, "wait for one reply message before exiting")
	return cmd
}

func runSend(so *sendOptions) error {
	opts, socketType, err := loadOptionsFile(so.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if so.socketType != "" {
		socketType = so.socketType
	}
	opts.HandshakeTimeout = api.TimeoutAfter(so.timeout)

	dialer := tcp.Dialer{Timeout: so.timeout, KeepAlive: tcp.KeepAliveConfig{
		Enable:   opts.TCPKeepAlive,
		Count:    opts.TCPKeepAliveCount,
		Idle:     opts.TCPKeepAliveIdle,
		Interval: opts.TCPKeepAliveInterval,
	}}
	stream, err := dialer.Dial(trimScheme(so.addr))
	if err != nil {
		return fmt.Errorf("dial %s: %w", so.addr, err)
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
	base, err := socket.NewBase(stream, cfg, opts, ar, socket.WithRuntime(rt, socketType, so.addr))
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	defer base.Close()

	if _, err := base.RecvFrame(); err != nil {
		return fmt.Errorf("await handshake completion: %w", err)
	}

	if err := base.SendBuffered([][]byte{[]byte(so.payload)}); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := base.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	fmt.Printf("sent %d bytes to %s\n", len(so.payload), so.addr)

	if !so.waitReply {
		return nil
	}
	ev, err := base.RecvFrame()
	if err != nil {
		return fmt.Errorf("await reply: %w", err)
	}
	for _, f := range ev.Message {
		fmt.Printf("reply frame: %q\n", f.Payload.Bytes())
	}
	return nil
}
