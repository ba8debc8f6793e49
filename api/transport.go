// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the stream abstraction the core is built against. §6.2 of the
// spec calls every transport "an owned bidirectional byte stream with
// read, write, and close"; TCP, ipc (Unix-domain), and inproc all
// satisfy this without the core knowing which one it has.

package api

import "time"

// Stream abstracts a full-duplex byte-oriented connection, independent
// of whether it is backed by a kernel socket (tcp, ipc) or an in-process
// channel pair (inproc).
type Stream interface {
	// Read reads into a preallocated buffer.
	Read(p []byte) (n int, err error)

	// Write writes buffer contents into the connection.
	Write(p []byte) (n int, err error)

	// Close shuts down the connection.
	Close() error

	// SetReadDeadline/SetWriteDeadline bound the next Read/Write call;
	// a zero time.Time disables the deadline. Used to implement the
	// three-valued timeout semantics (none/zero/positive) in socket.Base.
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer opens a new Stream to an endpoint string (e.g. "tcp://host:port",
// "ipc:///path", "inproc://name"). Endpoint parsing itself is out of
// scope (spec.md §1); a Dialer is handed a pre-parsed address by the
// transport-specific package that implements it.
type Dialer interface {
	Dial(addr string) (Stream, error)
}
