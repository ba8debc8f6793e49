// File: security/null.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NULL is the trivial mechanism: no key exchange, no per-frame
// transform. The only exchange is the READY command, which
// session.Machine drives directly — NULL.Next is never actually called
// because there is no mechanism-specific frame to wait for, but it is
// implemented to satisfy the Mechanism interface.
package security

import "github.com/vorjdux/monocoque/wire"

type Null struct{}

func NewNull() *Null { return &Null{} }

func (n *Null) Name() string { return "NULL" }

func (n *Null) Start() []wire.Frame { return nil }

func (n *Null) Next(name string, body []byte) ([]wire.Frame, Step, error) {
	return nil, StepDone, nil
}

func (n *Null) Encrypt(p []byte) ([]byte, error) { return p, nil }
func (n *Null) Decrypt(c []byte) ([]byte, error) { return c, nil }
