// File: socket/base.go
// Package socket implements the Socket Base of spec.md §4.5: the
// per-connection I/O core that drives a session.Machine against an
// api.Stream, with poison-guard write discipline and the
// RecvFrame/SendBuffered/Flush/TryReconnect surface every pattern in
// package pattern builds on.
//
// Grounded on client.WebSocketClient's connect/recvLoop/Close shape
// (client/client.go) for the connection lifecycle, and on
// protocol/connection.go's buffered-write-then-flush idiom for
// SendBuffered/Flush — generalized from a single WS connection driving
// frame_codec.go to a ZMTP session.Machine driving wire/session.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package socket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/control"
	"github.com/vorjdux/monocoque/reconnect"
	"github.com/vorjdux/monocoque/session"
	"github.com/vorjdux/monocoque/wire"
)

// Stats is the connection-level counter snapshot spec.md's supplemented
// introspection feature promises — queried via Base.GetStats, and
// promoted to every pattern type that embeds a peer set.
type Stats struct {
	FramesSent        uint64
	FramesReceived    uint64
	BytesSent         uint64
	BytesReceived     uint64
	ReconnectAttempts uint64
	SendQueueLen      int
}

// Base is the shared per-connection driver every socket pattern
// (package pattern) builds on, one per pattern Peer. It owns exactly one transport stream and
// one session.Machine; a ROUTER or pattern with many peers keeps one
// Base per peer.
type Base struct {
	mu sync.Mutex

	stream  api.Stream
	machine *session.Machine
	arena   *arena.Arena
	opts    api.Options

	readBuf []byte

	// poisoned is set the instant a partial write to stream fails —
	// spec.md §4.5's poison-guard discipline: once a frame is
	// half-written, the wire is in an indeterminate state and no
	// further application data may be sent on it, ever. Only a fresh
	// Stream (via TryReconnect) clears it.
	poisoned atomic.Bool

	closed atomic.Bool

	backoff *reconnect.Backoff

	pendingEvents []session.Event

	// sendQueue holds multipart messages accepted by SendBuffered but
	// not yet written to the wire — the deferred half of spec.md §4.5's
	// send_buffered/flush split. Gated by opts.SendHWM: the (H+1)th
	// queued message is rejected with ErrWouldBlock rather than grown
	// without bound.
	sendQueue [][][]byte

	framesSent        uint64
	framesReceived    uint64
	bytesSent         uint64
	bytesReceived     uint64
	reconnectAttempts uint64

	runtime    *control.Runtime
	socketType string
	endpoint   string
}

// BaseOption configures ambient-stack wiring at construction time,
// mirroring the teacher's functional-option idiom for server.Server.
type BaseOption func(*Base)

// WithRuntime attaches a control.Runtime so frame counts, reconnect
// attempts, and handshake failures are recorded against its Metrics and
// its Logger receives structured connection-scoped log lines. socketType
// and endpoint are the label values every metric/log line carries.
func WithRuntime(rt *control.Runtime, socketType, endpoint string) BaseOption {
	return func(b *Base) {
		b.runtime = rt
		b.socketType = socketType
		b.endpoint = endpoint
	}
}

// NewBase constructs a Base around an already-dialed/accepted stream,
// sending the initial ZMTP greeting eagerly (spec.md §4.4).
func NewBase(stream api.Stream, cfg session.Config, opts api.Options, ar *arena.Arena, optFns ...BaseOption) (*Base, error) {
	machine, greeting := session.New(cfg)
	b := &Base{
		stream:  stream,
		machine: machine,
		arena:   ar,
		opts:    opts,
		readBuf: make([]byte, opts.ReadBufferSize),
		backoff: reconnect.New(reconnect.Policy{Initial: opts.ReconnectBase, Max: opts.ReconnectMax, Multiplier: 2}),
	}
	for _, fn := range optFns {
		fn(b)
	}
	if err := b.writeAll(greeting); err != nil {
		b.recordHandshakeFailure()
		return nil, err
	}
	b.recordConnected()
	return b, nil
}

// IsPoisoned reports whether a prior write left the wire in an
// indeterminate state.
func (b *Base) IsPoisoned() bool { return b.poisoned.Load() }

// IsClosed reports whether Close has already released the stream.
func (b *Base) IsClosed() bool { return b.closed.Load() }

// IsActive reports whether the ZMTP handshake has completed.
func (b *Base) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.machine.State() == session.Active
}

// pumpLocked reads from the stream until at least one event is
// produced or the deadline (already set on stream) expires. Caller
// must hold b.mu.
func (b *Base) pumpLocked() ([]session.Event, error) {
	for {
		n, err := b.stream.Read(b.readBuf)
		if n > 0 {
			atomic.AddUint64(&b.bytesReceived, uint64(n))
			events, out, merr := b.machine.OnBytes(b.readBuf[:n])
			if len(out) > 0 {
				if werr := b.writeAllLocked(out); werr != nil {
					return events, werr
				}
			}
			if merr != nil {
				b.poisoned.Store(true)
				return events, merr
			}
			if len(events) > 0 {
				atomic.AddUint64(&b.framesReceived, uint64(len(events)))
				b.recordReceived(len(events), n)
				return events, nil
			}
		}
		if err != nil {
			return nil, api.ErrIo.WithContext("reason", err.Error())
		}
	}
}

// RecvFrame blocks (subject to opts.RecvTimeout) until a complete
// multipart message has been assembled by the session layer, or until
// the handshake completes — in which case the caller sees the
// handshake event and must call RecvFrame again for the first message.
func (b *Base) RecvFrame() (session.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pendingEvents) > 0 {
		e := b.pendingEvents[0]
		b.pendingEvents = b.pendingEvents[1:]
		return e, nil
	}

	b.armReadDeadlineLocked(b.opts.RecvTimeout)
	return b.recvLocked()
}

// TryRecvFrame polls for a message without blocking, regardless of the
// configured RecvTimeout — used by PUB/XPUB to drain SUBSCRIBE/CANCEL
// frames between publishes without stalling on a quiet peer (spec.md
// §4.6: "PUB never blocks on recv").
func (b *Base) TryRecvFrame() (session.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pendingEvents) > 0 {
		e := b.pendingEvents[0]
		b.pendingEvents = b.pendingEvents[1:]
		return e, nil
	}
	b.armReadDeadlineLocked(api.NonBlocking())
	return b.recvLocked()
}

func (b *Base) armReadDeadlineLocked(t api.Timeout) {
	if t.IsNone() {
		_ = b.stream.SetReadDeadline(time.Time{})
		return
	}
	if t.IsNonBlocking() {
		_ = b.stream.SetReadDeadline(time.Now())
		return
	}
	_ = b.stream.SetReadDeadline(time.Now().Add(t.Duration()))
}

func (b *Base) recvLocked() (session.Event, error) {
	events, err := b.pumpLocked()
	if err != nil {
		return session.Event{}, err
	}
	if len(events) == 0 {
		return session.Event{}, api.ErrWouldBlock
	}
	first := events[0]
	b.pendingEvents = append(b.pendingEvents, events[1:]...)
	return first, nil
}

// SendBuffered enqueues frames as one multipart ZMTP message for a
// later Flush, rather than writing it immediately — the deferred half
// of spec.md §4.5's send_buffered/flush batching contract. Once
// opts.SendHWM messages are queued unflushed, the (H+1)th call returns
// ErrWouldBlock without mutating the queue (spec.md §8: "at most H
// buffered messages accumulate").
func (b *Base) SendBuffered(frames [][]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.poisoned.Load() {
		return api.ErrConnectionPoisoned
	}
	if b.opts.SendHWM > 0 && len(b.sendQueue) >= b.opts.SendHWM {
		return api.ErrWouldBlock
	}

	msg := make([][]byte, len(frames))
	copy(msg, frames)
	b.sendQueue = append(b.sendQueue, msg)
	return nil
}

// Flush encodes and writes every message queued by SendBuffered since
// the last Flush, in order, as a single write — always safe to call,
// including with an empty queue, per spec.md §4.5.
func (b *Base) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

func (b *Base) flushLocked() error {
	if len(b.sendQueue) == 0 {
		return nil
	}
	if b.poisoned.Load() {
		return api.ErrConnectionPoisoned
	}

	if !b.opts.SendTimeout.IsNone() {
		if b.opts.SendTimeout.IsNonBlocking() {
			_ = b.stream.SetWriteDeadline(time.Now())
		} else {
			_ = b.stream.SetWriteDeadline(time.Now().Add(b.opts.SendTimeout.Duration()))
		}
	} else {
		_ = b.stream.SetWriteDeadline(time.Time{})
	}

	var buf []byte
	queued := b.sendQueue
	for _, frames := range queued {
		var err error
		buf, err = b.machine.EncodeOutgoing(buf[:0], frames)
		if err != nil {
			b.sendQueue = nil
			return err
		}
		if err := b.writeAllLocked(buf); err != nil {
			b.sendQueue = nil
			return err
		}
		atomic.AddUint64(&b.framesSent, 1)
	}
	b.sendQueue = nil
	b.recordSent(len(queued))
	return nil
}

// Send enqueues frames and flushes immediately — the "send one message
// now" convenience every pattern Send() method uses, equivalent to
// SendBuffered followed by Flush.
func (b *Base) Send(frames [][]byte) error {
	if err := b.SendBuffered(frames); err != nil {
		return err
	}
	return b.Flush()
}

func (b *Base) writeAll(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeAllLocked(p)
}

// writeAllLocked writes p to the stream in full. A partial write that
// then errors poisons the connection — the peer now holds a truncated
// frame it can never recover from, so no further send may proceed on
// this wire (spec.md §4.5, §8 universal invariant).
func (b *Base) writeAllLocked(p []byte) error {
	for len(p) > 0 {
		n, err := b.stream.Write(p)
		if n > 0 {
			p = p[n:]
			atomic.AddUint64(&b.bytesSent, uint64(n))
		}
		if err != nil {
			if len(p) > 0 {
				b.poisoned.Store(true)
			}
			return api.ErrIo.WithContext("reason", err.Error())
		}
	}
	return nil
}

// Close releases the underlying stream immediately, discarding any
// unflushed queue. Idempotent. Equivalent to CloseLinger(0).
func (b *Base) Close() error { return b.CloseLinger(b.opts.Linger) }

// CloseLinger attempts to Flush the pending send queue before closing,
// waiting at most linger for the write to complete; a zero or negative
// linger closes immediately without draining, matching ZMQ_LINGER's
// "0 means discard immediately" semantics. Idempotent.
func (b *Base) CloseLinger(linger time.Duration) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if linger > 0 {
		b.mu.Lock()
		if len(b.sendQueue) > 0 && !b.poisoned.Load() {
			_ = b.stream.SetWriteDeadline(time.Now().Add(linger))
			_ = b.flushLocked()
			_ = b.stream.SetWriteDeadline(time.Time{})
		}
		b.mu.Unlock()
	}
	return b.stream.Close()
}

// TryReconnect replaces the poisoned/closed stream with a freshly
// dialed one and restarts the ZMTP handshake from scratch (spec.md
// §4.8). The caller is expected to have waited out b.backoff.Next()
// already; TryReconnect itself performs no sleeping so it composes with
// whatever scheduling the owning pattern socket uses.
func (b *Base) TryReconnect(dialer api.Dialer, addr string, cfg session.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	atomic.AddUint64(&b.reconnectAttempts, 1)
	b.recordReconnectAttempt()

	stream, err := dialer.Dial(addr)
	if err != nil {
		return api.ErrHostUnreachable.WithContext("addr", addr).WithContext("reason", err.Error())
	}
	machine, greeting := session.New(cfg)
	b.stream = stream
	b.machine = machine
	b.poisoned.Store(false)
	b.closed.Store(false)
	b.pendingEvents = nil
	b.sendQueue = nil
	if err := b.writeAllLocked(greeting); err != nil {
		return err
	}
	b.backoff.Reset()
	return nil
}

// NextBackoff returns the delay the caller should wait before the next
// TryReconnect attempt, per spec.md §4.8's jittered exponential
// schedule.
func (b *Base) NextBackoff() time.Duration { return b.backoff.Next() }

// GetStats returns a snapshot of this connection's frame/byte counters,
// the supplemented introspection feature queryable independent of the
// prometheus registry.
func (b *Base) GetStats() Stats {
	b.mu.Lock()
	queued := len(b.sendQueue)
	b.mu.Unlock()
	return Stats{
		FramesSent:        atomic.LoadUint64(&b.framesSent),
		FramesReceived:    atomic.LoadUint64(&b.framesReceived),
		BytesSent:         atomic.LoadUint64(&b.bytesSent),
		BytesReceived:     atomic.LoadUint64(&b.bytesReceived),
		ReconnectAttempts: atomic.LoadUint64(&b.reconnectAttempts),
		SendQueueLen:      queued,
	}
}

// DebugSnapshot renders this connection's session state, poison flag,
// and queue depth for control.DebugProbes — the other half of the
// supplemented introspection feature alongside GetStats.
func (b *Base) DebugSnapshot() map[string]any {
	b.mu.Lock()
	state := b.machine.State()
	queued := len(b.sendQueue)
	b.mu.Unlock()
	return map[string]any{
		"state":          state.String(),
		"poisoned":       b.poisoned.Load(),
		"closed":         b.closed.Load(),
		"send_queue_len": queued,
	}
}

// RegisterDebugProbes registers this connection's DebugSnapshot under
// "conn.<name>" in dp, so control.Runtime's DumpState surfaces it
// alongside the platform and config probes.
func (b *Base) RegisterDebugProbes(dp *control.DebugProbes, name string) {
	if dp == nil {
		return
	}
	dp.RegisterProbe("conn."+name, func() any { return b.DebugSnapshot() })
}

func (b *Base) recordConnected() {
	if b.runtime == nil || b.runtime.Metrics == nil {
		return
	}
	b.runtime.Metrics.ActiveConnections.WithLabelValues(b.socketType, b.endpoint).Inc()
}

func (b *Base) recordHandshakeFailure() {
	if b.runtime == nil || b.runtime.Metrics == nil {
		return
	}
	b.runtime.Metrics.HandshakeFailures.WithLabelValues(b.socketType, b.endpoint).Inc()
	if b.runtime.Logger != nil {
		b.runtime.Logger.WithFields(control.ConnectionFields(b.socketType, b.endpoint, 0)).
			Warn("zmtp handshake failed")
	}
}

func (b *Base) recordSent(messages int) {
	if b.runtime == nil || b.runtime.Metrics == nil {
		return
	}
	b.runtime.Metrics.MessagesSent.WithLabelValues(b.socketType, b.endpoint).Add(float64(messages))
	b.runtime.Metrics.BytesSent.WithLabelValues(b.socketType, b.endpoint).
		Add(float64(atomic.LoadUint64(&b.bytesSent)))
}

func (b *Base) recordReceived(messages, bytesRead int) {
	if b.runtime == nil || b.runtime.Metrics == nil {
		return
	}
	b.runtime.Metrics.MessagesReceived.WithLabelValues(b.socketType, b.endpoint).Add(float64(messages))
	b.runtime.Metrics.BytesReceived.WithLabelValues(b.socketType, b.endpoint).Add(float64(bytesRead))
}

func (b *Base) recordReconnectAttempt() {
	if b.runtime == nil {
		return
	}
	if b.runtime.Metrics != nil {
		b.runtime.Metrics.ReconnectAttempts.WithLabelValues(b.socketType, b.endpoint).Inc()
	}
	if b.runtime.Logger != nil {
		b.runtime.Logger.WithFields(control.ConnectionFields(b.socketType, b.endpoint, 0)).
			Info("reconnect attempt")
	}
}

// EncodeFrame is exposed so pattern wrappers that need to inject a
// raw command frame (e.g. XPUB sending an out-of-band SUBSCRIBE) can
// reuse the wire codec without reimporting it directly.
func EncodeFrame(dst []byte, payload []byte, more bool) []byte {
	return wire.EncodeFrame(dst, payload, more, false)
}
