// File: security/plain.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PLAIN mechanism (spec.md §4.4): client sends HELLO(username,
// password); server responds WELCOME on success or ERROR(reason);
// server synthesizes a ZAP request and consults a Validator before
// answering.
package security

import (
	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/arena"
	"github.com/vorjdux/monocoque/wire"
)

// Plain implements both the client and server side of the PLAIN
// mechanism, selected by isServer.
type Plain struct {
	isServer  bool
	username  string
	password  string
	validator Validator
	domain    string
}

// NewPlainClient builds the client side, sending the given credentials.
func NewPlainClient(username, password string) *Plain {
	return &Plain{isServer: false, username: username, password: password}
}

// NewPlainServer builds the server side. A nil validator defaults to
// AllowAllValidator.
func NewPlainServer(domain string, validator Validator) *Plain {
	if validator == nil {
		validator = AllowAllValidator{}
	}
	return &Plain{isServer: true, domain: domain, validator: validator}
}

func (p *Plain) Name() string { return "PLAIN" }

func encodeLP(dst []byte, s string) []byte {
	return append(append(dst, byte(len(s))), s...)
}

func decodeLP(body []byte) (string, []byte, error) {
	if len(body) < 1 {
		return "", nil, api.ErrHandshakeFailure
	}
	n := int(body[0])
	if len(body) < 1+n {
		return "", nil, api.ErrHandshakeFailure
	}
	return string(body[1 : 1+n]), body[1+n:], nil
}

func (p *Plain) Start() []wire.Frame {
	if p.isServer {
		return nil
	}
	var body []byte
	body = encodeLP(body, p.username)
	body = encodeLP(body, p.password)
	var payload []byte
	payload = wire.EncodeCommandName(payload, wire.CommandHello)
	payload = append(payload, body...)
	return []wire.Frame{{Flags: wire.FlagCommand, Payload: arena.NewViewFromBytes(payload)}}
}

func (p *Plain) Next(name string, body []byte) ([]wire.Frame, Step, error) {
	if p.isServer {
		return p.nextServer(name, body)
	}
	return p.nextClient(name, body)
}

func (p *Plain) nextServer(name string, body []byte) ([]wire.Frame, Step, error) {
	if name != wire.CommandHello {
		return nil, StepFailed, api.ErrHandshakeFailure.WithContext("command", name)
	}
	username, rest, err := decodeLP(body)
	if err != nil {
		return nil, StepFailed, err
	}
	password, _, err := decodeLP(rest)
	if err != nil {
		return nil, StepFailed, err
	}

	resp := p.validator.Validate(Request{
		Domain:      p.domain,
		Mechanism:   "PLAIN",
		Credentials: [][]byte{[]byte(username), []byte(password)},
	})

	if resp.StatusCode != ZAPStatusOK {
		var payload []byte
		payload = wire.EncodeCommandName(payload, wire.CommandError)
		payload = encodeLPBytes(payload, []byte(resp.StatusText))
		return []wire.Frame{{Flags: wire.FlagCommand, Payload: arena.NewViewFromBytes(payload)}},
			StepFailed, api.ErrAuthentication.WithContext("status", resp.StatusCode)
	}

	var payload []byte
	payload = wire.EncodeCommandName(payload, wire.CommandWelcome)
	return []wire.Frame{{Flags: wire.FlagCommand, Payload: arena.NewViewFromBytes(payload)}}, StepDone, nil
}

func (p *Plain) nextClient(name string, body []byte) ([]wire.Frame, Step, error) {
	switch name {
	case wire.CommandWelcome:
		return nil, StepDone, nil
	case wire.CommandError:
		reason, _, _ := decodeLP(body)
		return nil, StepFailed, api.ErrAuthentication.WithContext("reason", reason)
	default:
		return nil, StepFailed, api.ErrHandshakeFailure.WithContext("command", name)
	}
}

func encodeLPBytes(dst []byte, b []byte) []byte {
	var lenBuf [1]byte
	lenBuf[0] = byte(len(b))
	dst = append(dst, lenBuf[:]...)
	return append(dst, b...)
}

func (p *Plain) Encrypt(plain []byte) ([]byte, error)  { return plain, nil }
func (p *Plain) Decrypt(cipher []byte) ([]byte, error) { return cipher, nil }
