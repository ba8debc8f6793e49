package socket_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// pipeStream is a minimal in-memory api.Stream backed by two byte
// queues, standing in for a dialed tcp/ipc connection in tests —
// grounded on the teacher's fake.Transport idiom (fake/fake.go) of a
// buffer-backed double with no real kernel I/O.
type pipeStream struct {
	mu   sync.Mutex
	cond *sync.Cond
	in   bytes.Buffer
	out  bytes.Buffer
	closed bool
}

func newPipeStream() *pipeStream {
	p := &pipeStream{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// feed injects bytes as if the peer had sent them.
func (p *pipeStream) feed(b []byte) {
	p.mu.Lock()
	p.in.Write(b)
	p.cond.Broadcast()
	p.mu.Unlock()
}

// writtenSoFar snapshots bytes written by the code under test.
func (p *pipeStream) writtenSoFar() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte{}, p.out.Bytes()...)
}

// drainNew returns only the bytes written since the last drainNew call,
// so a test can relay exactly what's new to the peer's stream without
// re-feeding bytes the peer already consumed.
func (p *pipeStream) drainNew() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := append([]byte{}, p.out.Bytes()...)
	p.out.Reset()
	return b
}

func (p *pipeStream) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.in.Len() == 0 {
		if p.closed {
			return 0, io.EOF
		}
		p.cond.Wait()
	}
	return p.in.Read(buf)
}

func (p *pipeStream) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("closed")
	}
	return p.out.Write(buf)
}

func (p *pipeStream) Close() error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}

func (p *pipeStream) SetReadDeadline(t time.Time) error  { return nil }
func (p *pipeStream) SetWriteDeadline(t time.Time) error { return nil }
