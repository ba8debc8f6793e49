// File: api/options.go
// Author: momentics <momentics@gmail.com>
//
// Options bundles the configuration surface enumerated in spec.md
// §6.4. The teacher's functional-options idiom (server/options.go's
// ServerOption) carries over as SocketOption functions that mutate an
// Options value.

package api

import "time"

// Timeout is the three-valued timeout contract of spec.md §5: the zero
// value (NoTimeout) means wait indefinitely, a zero duration means fail immediately with
// WouldBlock if not ready, a positive duration means fail with Timeout
// once elapsed.
type Timeout struct {
	set   bool
	value time.Duration
}

// NoTimeout returns the "await indefinitely" timeout.
func NoTimeout() Timeout { return Timeout{} }

// NonBlocking returns the "fail immediately if not ready" timeout.
func NonBlocking() Timeout { return Timeout{set: true, value: 0} }

// TimeoutAfter returns a positive timed deadline. d must be > 0.
func TimeoutAfter(d time.Duration) Timeout { return Timeout{set: true, value: d} }

// IsNone reports whether this is the "wait indefinitely" case.
func (t Timeout) IsNone() bool { return !t.set }

// IsNonBlocking reports whether this is the zero-duration case.
func (t Timeout) IsNonBlocking() bool { return t.set && t.value == 0 }

// Duration returns the positive duration; valid only when neither
// IsNone nor IsNonBlocking holds.
func (t Timeout) Duration() time.Duration { return t.value }

// SecuritySelection picks the ZMTP mechanism and carries its credentials.
type SecuritySelection struct {
	Mechanism string // "NULL", "PLAIN", "CURVE"

	PlainUsername string
	PlainPassword string
	PlainIsServer bool

	CurveIsServer  bool
	CurvePublicKey [32]byte
	CurveSecretKey [32]byte
	CurveServerKey [32]byte // client-side: the server's known public key

	ZAPDomain string
}

// Options bundles all per-socket configuration (spec.md §6.4).
type Options struct {
	ReadBufferSize  int
	WriteBufferSize int

	RecvTimeout      Timeout
	SendTimeout      Timeout
	HandshakeTimeout Timeout
	ConnectTimeout   Timeout

	Linger time.Duration

	ReconnectBase time.Duration
	ReconnectMax  time.Duration

	RecvHWM int
	SendHWM int

	Immediate   bool
	MaxMsgSize  int64
	Identity    []byte
	ConnectRoutingID []byte

	RouterMandatory bool
	RouterHandover  bool
	ProbeRouter     bool

	XPubVerbose     bool
	XPubManual      bool
	XPubWelcomeMsg  []byte
	XSubVerboseUnsubs bool

	Conflate bool

	TCPKeepAlive         bool
	TCPKeepAliveCount    int
	TCPKeepAliveIdle     time.Duration
	TCPKeepAliveInterval time.Duration

	ReqCorrelate bool
	ReqRelaxed   bool

	Security SecuritySelection

	PreSubscriptions []string

	ByteHWM int // optional byte-level backpressure; 0 disables it (spec.md §9 open question)
}

// DefaultOptions returns the baseline configuration: NULL security, no
// send/recv timeouts, 30s handshake and connect timeouts, HWM 1000 per
// direction, 100ms/30s reconnect backoff —
// matching libzmq's own defaults.
func DefaultOptions() Options {
	return Options{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		RecvTimeout:     NoTimeout(),
		SendTimeout:     NoTimeout(),
		HandshakeTimeout: TimeoutAfter(30 * time.Second),
		ConnectTimeout:   TimeoutAfter(30 * time.Second),
		ReconnectBase:    100 * time.Millisecond,
		ReconnectMax:     30 * time.Second,
		RecvHWM:          1000,
		SendHWM:          1000,
		MaxMsgSize:       1 << 30,
		Security:         SecuritySelection{Mechanism: "NULL"},
	}
}

// SocketOption mutates an Options value, mirroring the teacher's
// ServerOption convention. socket.NewBase and the pattern constructors
// do not take a SocketOption list; these are applied to an Options value.
type SocketOption func(*Options)

func WithRecvHWM(n int) SocketOption      { return func(o *Options) { o.RecvHWM = n } }
func WithSendHWM(n int) SocketOption      { return func(o *Options) { o.SendHWM = n } }
func WithIdentity(id []byte) SocketOption { return func(o *Options) { o.Identity = id } }
func WithRecvTimeout(t Timeout) SocketOption { return func(o *Options) { o.RecvTimeout = t } }
func WithSendTimeout(t Timeout) SocketOption { return func(o *Options) { o.SendTimeout = t } }
func WithLinger(d time.Duration) SocketOption { return func(o *Options) { o.Linger = d } }
func WithReconnectBackoff(base, max time.Duration) SocketOption {
	return func(o *Options) { o.ReconnectBase = base; o.ReconnectMax = max }
}
func WithRouterMandatory(v bool) SocketOption { return func(o *Options) { o.RouterMandatory = v } }
func WithRouterHandover(v bool) SocketOption  { return func(o *Options) { o.RouterHandover = v } }
func WithReqCorrelate(v bool) SocketOption    { return func(o *Options) { o.ReqCorrelate = v } }
func WithReqRelaxed(v bool) SocketOption      { return func(o *Options) { o.ReqRelaxed = v } }
func WithSecurity(s SecuritySelection) SocketOption {
	return func(o *Options) { o.Security = s }
}
func WithMaxMsgSize(n int64) SocketOption { return func(o *Options) { o.MaxMsgSize = n } }
func WithPreSubscriptions(topics ...string) SocketOption {
	return func(o *Options) { o.PreSubscriptions = append(o.PreSubscriptions, topics...) }
}
func WithConnectRoutingID(id []byte) SocketOption { return func(o *Options) { o.ConnectRoutingID = id } }
func WithProbeRouter(v bool) SocketOption         { return func(o *Options) { o.ProbeRouter = v } }
func WithXPubVerbose(v bool) SocketOption         { return func(o *Options) { o.XPubVerbose = v } }
func WithXPubManual(v bool) SocketOption          { return func(o *Options) { o.XPubManual = v } }
func WithXPubWelcomeMsg(msg []byte) SocketOption  { return func(o *Options) { o.XPubWelcomeMsg = msg } }
func WithXSubVerboseUnsubs(v bool) SocketOption {
	return func(o *Options) { o.XSubVerboseUnsubs = v }
}
func WithConflate(v bool) SocketOption { return func(o *Options) { o.Conflate = v } }
func WithTCPKeepAlive(enable bool, count int, idle, interval time.Duration) SocketOption {
	return func(o *Options) {
		o.TCPKeepAlive = enable
		o.TCPKeepAliveCount = count
		o.TCPKeepAliveIdle = idle
		o.TCPKeepAliveInterval = interval
	}
}
