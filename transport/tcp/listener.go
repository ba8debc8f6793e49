// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp provides the tcp:// Stream/Dialer/Listener trio ZMTP
// sockets dial and accept through (spec.md §6.2). Listen keeps the
// teacher's optional CPU-affinity pinning, applied to the goroutine that
// calls Listen (the accept loop, when Serve runs on that goroutine),
// useful when a ROUTER or PULL server expects a very high connection
// rate.

package tcp

import (
	"fmt"
	"net"
	"os"

	"github.com/vorjdux/monocoque/api"
)

// ListenerConfig holds configuration for the TCP listener.
type ListenerConfig struct {
	Addr       string // TCP address to bind (e.g., ":5555")
	WorkerCPUs []int  // if set, Listen pins its calling goroutine to WorkerCPUs[0]
}

// Listener accepts ZMTP connections and hands back api.Stream values.
type Listener struct {
	ln net.Listener
}

// Listen opens a TCP listening socket at cfg.Addr.
func Listen(cfg ListenerConfig) (*Listener, error) {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("tcp listen failed: %w", err)
	}
	if len(cfg.WorkerCPUs) > 0 {
		setCPUAffinity(cfg.WorkerCPUs[0])
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks for the next inbound connection and wraps it as a Stream.
func (l *Listener) Accept() (api.Stream, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, api.ErrIo.WithContext("reason", err.Error())
	}
	return NewStream(conn), nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Serve repeatedly Accepts and hands each Stream to handle in its own
// goroutine, logging (to stderr, matching the teacher's bare listener
// loop) and continuing on transient accept errors.
func (l *Listener) Serve(handle func(api.Stream)) error {
	for {
		s, err := l.Accept()
		if err != nil {
			if ne, ok := err.(*api.Error); ok && ne.Code == api.ErrCodeIo {
				fmt.Fprintf(os.Stderr, "tcp accept error: %v\n", err)
				continue
			}
			return err
		}
		go handle(s)
	}
}
