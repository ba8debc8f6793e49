// File: transport/ipc/ipc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package ipc implements the ZMTP ipc:// transport: the same
// api.Stream/api.Dialer contract as package tcp, over a Unix domain
// socket instead of a TCP connection (spec.md §6.2 — ipc and tcp share
// the identical wire behavior once connected, so this package only
// differs from transport/tcp in the net.Listen/net.Dial network name).
package ipc

import (
	"net"
	"os"
	"time"

	"github.com/vorjdux/monocoque/api"
)

// Stream adapts a Unix domain net.Conn to api.Stream.
type Stream struct {
	conn net.Conn
}

func NewStream(conn net.Conn) *Stream { return &Stream{conn: conn} }

func (s *Stream) Read(p []byte) (int, error)         { return s.conn.Read(p) }
func (s *Stream) Write(p []byte) (int, error)        { return s.conn.Write(p) }
func (s *Stream) Close() error                       { return s.conn.Close() }
func (s *Stream) SetReadDeadline(t time.Time) error   { return s.conn.SetReadDeadline(t) }
func (s *Stream) SetWriteDeadline(t time.Time) error  { return s.conn.SetWriteDeadline(t) }

// Dialer implements api.Dialer over net.Dial("unix", ...).
type Dialer struct{ Timeout time.Duration }

// Dial connects to a filesystem path (the "ipc://" scheme prefix is
// expected to already be stripped by the caller).
func (d Dialer) Dial(path string) (api.Stream, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.Dial("unix", path)
	if err != nil {
		return nil, api.ErrHostUnreachable.WithContext("path", path).WithContext("reason", err.Error())
	}
	return NewStream(conn), nil
}

// Listener accepts ZMTP connections over a Unix domain socket.
type Listener struct {
	ln   net.Listener
	path string
}

// Listen binds a Unix domain socket at path, removing any stale socket
// file left over from a prior unclean shutdown first (the standard
// idiom for Unix sockets — a leftover inode otherwise makes bind fail
// with "address already in use" even though nothing is listening).
func Listen(path string) (*Listener, error) {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, api.ErrIo.WithContext("path", path).WithContext("reason", err.Error())
	}
	return &Listener{ln: ln, path: path}, nil
}

func (l *Listener) Accept() (api.Stream, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, api.ErrIo.WithContext("reason", err.Error())
	}
	return NewStream(conn), nil
}

func (l *Listener) Close() error {
	err := l.ln.Close()
	_ = os.Remove(l.path)
	return err
}
