// File: wire/commands.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ZMTP commands are COMMAND-flagged frames whose payload begins with a
// u8 name-length + name, followed by a command-specific body (spec.md
// §6.1). READY's body is a sequence of length-prefixed metadata pairs;
// SUBSCRIBE/CANCEL's body is a topic; PING/PONG carry an optional
// heartbeat payload this implementation never activates (spec.md §9).
package wire

import (
	"encoding/binary"

	"github.com/vorjdux/monocoque/api"
)

const (
	CommandReady     = "READY"
	CommandSubscribe = "SUBSCRIBE"
	CommandCancel    = "CANCEL"
	CommandPing      = "PING"
	CommandPong      = "PONG"
	CommandHello     = "HELLO"
	CommandWelcome   = "WELCOME"
	CommandInitiate  = "INITIATE"
	CommandError     = "ERROR"
)

// SocketTypeProperty is the mandatory READY metadata key naming the
// socket pattern (spec.md §6.1). Its absence must never happen on
// encode — the session layer always emits it.
const SocketTypeProperty = "Socket-Type"

// IdentityProperty carries a ROUTER-assigned or peer-declared identity.
const IdentityProperty = "Identity"

// EncodeCommandName appends the name-length-prefixed command name to dst.
func EncodeCommandName(dst []byte, name string) []byte {
	return append(append(dst, byte(len(name))), name...)
}

// DecodeCommandName parses the leading name-length+name of a command
// frame payload, returning the name and the remaining body.
func DecodeCommandName(payload []byte) (name string, body []byte, err error) {
	if len(payload) < 1 {
		return "", nil, api.ErrHandshakeFailure.WithContext("reason", "empty command")
	}
	n := int(payload[0])
	if len(payload) < 1+n {
		return "", nil, api.ErrHandshakeFailure.WithContext("reason", "truncated command name")
	}
	return string(payload[1 : 1+n]), payload[1+n:], nil
}

// Metadata is an ordered set of READY property name/value pairs.
type Metadata []MetadataPair

type MetadataPair struct {
	Name  string
	Value []byte
}

// Get returns the first value for name, if present.
func (m Metadata) Get(name string) ([]byte, bool) {
	for _, p := range m {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// EncodeMetadata appends length-prefixed name/value pairs: u8 name-len,
// name, u32-BE value-len, value (spec.md §6.1).
func EncodeMetadata(dst []byte, md Metadata) []byte {
	for _, p := range md {
		dst = append(dst, byte(len(p.Name)))
		dst = append(dst, p.Name...)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p.Value)))
		dst = append(dst, lenBuf[:]...)
		dst = append(dst, p.Value...)
	}
	return dst
}

// DecodeMetadata parses a sequence of metadata pairs until body is
// exhausted.
func DecodeMetadata(body []byte) (Metadata, error) {
	var md Metadata
	for len(body) > 0 {
		if len(body) < 1 {
			return nil, api.ErrHandshakeFailure.WithContext("reason", "truncated metadata name length")
		}
		nlen := int(body[0])
		body = body[1:]
		if len(body) < nlen+4 {
			return nil, api.ErrHandshakeFailure.WithContext("reason", "truncated metadata name/value-len")
		}
		name := string(body[:nlen])
		body = body[nlen:]
		vlen := int(binary.BigEndian.Uint32(body[:4]))
		body = body[4:]
		if len(body) < vlen {
			return nil, api.ErrHandshakeFailure.WithContext("reason", "truncated metadata value")
		}
		md = append(md, MetadataPair{Name: name, Value: body[:vlen]})
		body = body[vlen:]
	}
	return md, nil
}

// EncodeReady builds the READY command payload for the given metadata.
// Socket-Type must already be present in md — session.Machine always
// adds it; this function does not check.
func EncodeReady(md Metadata) []byte {
	var dst []byte
	dst = EncodeCommandName(dst, CommandReady)
	return EncodeMetadata(dst, md)
}

// EncodeSubscribe/EncodeCancel build the SUBSCRIBE/CANCEL command
// payloads: a "0x01"/"0x00" opcode byte followed by the topic, matching
// the wire-level convention described in spec.md §6.1 (these are sent
// as ordinary frames with the prefix byte, not as COMMAND frames, per
// libzmq's actual wire behavior for subscriptions on a SUB/XSUB
// connection).
func EncodeSubscribe(topic string) []byte {
	return append([]byte{0x01}, topic...)
}

func EncodeCancel(topic string) []byte {
	return append([]byte{0x00}, topic...)
}

// DecodeSubscription parses a SUBSCRIBE/CANCEL frame payload (the
// leading opcode byte plus topic), returning the topic and whether it
// is a subscribe (true) or cancel (false).
func DecodeSubscription(payload []byte) (topic string, subscribe bool, ok bool) {
	if len(payload) == 0 {
		return "", false, false
	}
	switch payload[0] {
	case 0x01:
		return string(payload[1:]), true, true
	case 0x00:
		return string(payload[1:]), false, true
	default:
		return "", false, false
	}
}
