// File: security/zap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ZAP (ZeroMQ Authentication Protocol) request/response shape, modeled
// per spec.md §5 design notes as "just another socket pair" — an
// in-process endpoint, not a wire-facing channel (the ZAP relay channel
// itself is out of scope per spec.md §1). PLAIN and CURVE servers
// synthesize a Request and call a Validator to get a Response.
package security

// Request is a ZAP authentication request synthesized by a PLAIN or
// CURVE server mechanism.
type Request struct {
	Version    string
	Domain     string
	Address    string
	Identity   []byte
	Mechanism  string
	Credentials [][]byte // PLAIN: [username, password]; CURVE: [public key]
}

// Response is what a Validator returns. StatusCode follows the ZAP
// convention: 200 success, 300 temporary failure/retry, 400 auth
// failure, 500 internal error (spec.md §4.4).
type Response struct {
	StatusCode string
	StatusText string
	UserID     string
	Metadata   []byte
}

const (
	ZAPStatusOK           = "200"
	ZAPStatusTemporary    = "300"
	ZAPStatusAuthFailure  = "400"
	ZAPStatusInternalFail = "500"
)

// Validator authenticates a Request. Applications plug in their own
// (checking a password file, an ACL of CURVE public keys, ...); the
// default used when none is configured always accepts, matching NULL's
// "no authentication" behavior for servers that select PLAIN/CURVE only
// for the encrypted channel, not for access control.
type Validator interface {
	Validate(req Request) Response
}

// AllowAllValidator accepts every request with ZAPStatusOK.
type AllowAllValidator struct{}

func (AllowAllValidator) Validate(req Request) Response {
	return Response{StatusCode: ZAPStatusOK, StatusText: "OK"}
}
