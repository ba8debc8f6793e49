// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"net"
	"time"

	"github.com/vorjdux/monocoque/api"
)

// Stream adapts a net.Conn to api.Stream, grounded on transport.NetConn
// (transport/netconn.go) — unchanged Read/Write/Close semantics, minus
// the NUMA buffer pool (the arena package now owns pooled allocation at
// a layer above the transport).
type Stream struct {
	conn net.Conn
}

// NewStream wraps an already-established net.Conn.
func NewStream(conn net.Conn) *Stream { return &Stream{conn: conn} }

func (s *Stream) Read(p []byte) (int, error)  { return s.conn.Read(p) }
func (s *Stream) Write(p []byte) (int, error) { return s.conn.Write(p) }
func (s *Stream) Close() error                { return s.conn.Close() }

func (s *Stream) SetReadDeadline(t time.Time) error  { return s.conn.SetReadDeadline(t) }
func (s *Stream) SetWriteDeadline(t time.Time) error { return s.conn.SetWriteDeadline(t) }

// KeepAliveConfig mirrors spec.md §6.4's TCP keepalive option group
// (TCPKeepAlive, TCPKeepAliveCount, TCPKeepAliveIdle,
// TCPKeepAliveInterval) so a Dialer/Listener can apply it to the
// net.TCPConn it produces.
type KeepAliveConfig struct {
	Enable   bool
	Count    int
	Idle     time.Duration
	Interval time.Duration
}

func applyKeepAlive(conn net.Conn, cfg KeepAliveConfig) {
	if !cfg.Enable {
		return
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tcpConn.SetKeepAliveConfig(net.KeepAliveConfig{
		Enable:   true,
		Idle:     cfg.Idle,
		Interval: cfg.Interval,
		Count:    cfg.Count,
	})
}

// Dialer implements api.Dialer over net.Dial("tcp", ...).
type Dialer struct {
	Timeout   time.Duration
	KeepAlive KeepAliveConfig
}

// Dial connects to addr, a bare "host:port" pair (the "tcp://" scheme
// prefix, if present, is expected to have already been stripped by the
// caller — endpoint parsing is out of scope per spec.md §1).
func (d Dialer) Dial(addr string) (api.Stream, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.Dial("tcp", addr)
	if err != nil {
		return nil, api.ErrHostUnreachable.WithContext("addr", addr).WithContext("reason", err.Error())
	}
	applyKeepAlive(conn, d.KeepAlive)
	return NewStream(conn), nil
}
