// File: transport/inproc/inproc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package inproc implements the ZMTP inproc:// transport: two sockets
// in the same process connected via net.Pipe rather than a kernel
// socket (spec.md §6.2). A process-wide registry lets a Dial by name
// find a Listener bound under that name, mirroring libzmq's inproc
// endpoint namespace.
package inproc

import (
	"net"
	"sync"
	"time"

	"github.com/vorjdux/monocoque/api"
)

// Stream adapts one end of a net.Pipe to api.Stream.
type Stream struct {
	conn net.Conn
}

func newStream(conn net.Conn) *Stream { return &Stream{conn: conn} }

func (s *Stream) Read(p []byte) (int, error)         { return s.conn.Read(p) }
func (s *Stream) Write(p []byte) (int, error)        { return s.conn.Write(p) }
func (s *Stream) Close() error                       { return s.conn.Close() }
func (s *Stream) SetReadDeadline(t time.Time) error  { return s.conn.SetReadDeadline(t) }
func (s *Stream) SetWriteDeadline(t time.Time) error { return s.conn.SetWriteDeadline(t) }

// registry is the process-wide inproc:// namespace: name -> listener.
var (
	registryMu sync.Mutex
	registry   = map[string]*Listener{}
)

// Listener is a bound inproc endpoint; Accept hands back one Stream per
// Dial against the same name.
type Listener struct {
	name    string
	pending chan net.Conn
	closeCh chan struct{}
}

// Listen registers name in the process-wide inproc namespace. Returns
// ErrProtocolViolation if name is already bound, matching libzmq's
// "address in use" behavior for a duplicate inproc bind.
func Listen(name string) (*Listener, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return nil, api.ErrProtocolViolation.WithContext("name", name).WithContext("reason", "inproc endpoint already bound")
	}
	l := &Listener{name: name, pending: make(chan net.Conn), closeCh: make(chan struct{})}
	registry[name] = l
	return l, nil
}

// Accept blocks until a Dial against this endpoint's name arrives.
func (l *Listener) Accept() (api.Stream, error) {
	select {
	case conn := <-l.pending:
		return newStream(conn), nil
	case <-l.closeCh:
		return nil, api.ErrConnectionClosed
	}
}

// Close unregisters name so future Dials fail until a new Listen.
func (l *Listener) Close() error {
	registryMu.Lock()
	delete(registry, l.name)
	registryMu.Unlock()
	close(l.closeCh)
	return nil
}

// Dialer implements api.Dialer by looking up a bound Listener by name.
type Dialer struct{}

// Dial connects to a Listener registered under name (the "inproc://"
// scheme prefix is expected to already be stripped by the caller).
func (Dialer) Dial(name string) (api.Stream, error) {
	registryMu.Lock()
	l, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, api.ErrHostUnreachable.WithContext("name", name).WithContext("reason", "no inproc listener bound under this name")
	}
	clientConn, serverConn := net.Pipe()
	select {
	case l.pending <- serverConn:
		return newStream(clientConn), nil
	case <-l.closeCh:
		return nil, api.ErrConnectionClosed
	}
}
