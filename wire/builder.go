// File: wire/builder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Builder is the fluent multipart constructor named in spec.md §4.9,
// grounded on the teacher's functional-options chaining idiom
// (server/options.go) applied instead to message assembly.
package wire

// Builder accumulates frame payloads for a multipart message.
type Builder struct {
	frames [][]byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Push appends a frame payload and returns the Builder for chaining.
func (b *Builder) Push(payload []byte) *Builder {
	b.frames = append(b.frames, payload)
	return b
}

// PushString is a convenience wrapper over Push.
func (b *Builder) PushString(s string) *Builder {
	return b.Push([]byte(s))
}

// PushEmpty appends a zero-length frame, the REQ/REP/ROUTER envelope
// delimiter.
func (b *Builder) PushEmpty() *Builder {
	return b.Push([]byte{})
}

// Build returns the accumulated frame payloads as a multipart message.
func (b *Builder) Build() [][]byte {
	return b.frames
}
