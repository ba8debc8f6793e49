// File: reconnect/backoff.go
// Package reconnect implements spec.md §4.8: exponential backoff with
// full jitter between reconnection attempts to a remembered endpoint
// set, so a DEALER/SUB/PUSH/REQ socket whose transport link drops can
// resume without the application re-driving Connect.
//
// Grounded on the teacher's control/hotreload.go retry-loop shape
// (attempt counter, capped delay, abort channel) generalized from a
// fixed-interval poll into the jittered exponential schedule spec.md
// mandates, and on client/client.go's reconnect goroutine for the
// "remembered endpoint, redialed on failure" structure.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reconnect

import (
	"math/rand"
	"time"
)

// Policy configures the backoff schedule (spec.md §4.8, §6.4).
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultPolicy matches libzmq's default reconnect interval range.
func DefaultPolicy() Policy {
	return Policy{Initial: 100 * time.Millisecond, Max: 30 * time.Second, Multiplier: 2.0}
}

// Backoff tracks the attempt count for one endpoint and computes the
// next delay. Not safe for concurrent use — each endpoint's reconnect
// loop owns its own Backoff.
type Backoff struct {
	policy  Policy
	attempt int
	rng     *rand.Rand
}

// New constructs a Backoff under policy with its own random generator,
// seeded from seed(), so callers never need to wire entropy themselves.
func New(policy Policy) *Backoff {
	return &Backoff{policy: policy, rng: rand.New(rand.NewSource(seed()))}
}

// seed returns the current time, which is acceptable jitter entropy
// since backoff timing is not security-sensitive.
var seed = func() int64 { return time.Now().UnixNano() }

// Next returns the delay to wait before the next attempt and
// increments the internal attempt counter. Uses full jitter: a
// uniform random duration in [0, cap), per the "Exponential Backoff
// And Jitter" approach, to avoid synchronized retry storms across many
// sockets reconnecting to the same endpoint at once.
func (b *Backoff) Next() time.Duration {
	cap := float64(b.policy.Initial) * pow(b.policy.Multiplier, b.attempt)
	if cap > float64(b.policy.Max) {
		cap = float64(b.policy.Max)
	}
	b.attempt++
	if cap <= 0 {
		return 0
	}
	return time.Duration(b.rng.Int63n(int64(cap)))
}

// Reset zeroes the attempt counter — called once a connection succeeds
// and then later drops, so the next failure starts the schedule over.
func (b *Backoff) Reset() { b.attempt = 0 }

// Attempt returns the number of attempts made so far.
func (b *Backoff) Attempt() int { return b.attempt }

func pow(base float64, exp int) float64 {
	r := 1.0
	for i := 0; i < exp; i++ {
		r *= base
	}
	return r
}
