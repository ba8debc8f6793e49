// File: proxy/proxy.go
// Package proxy implements spec.md §4.9: a bidirectional message
// forwarder between two endpoints (typically an XSUB frontend and an
// XPUB backend), with an optional capture sink and a steerable control
// channel for PAUSE/RESUME/TERMINATE.
//
// Grounded on the teacher's server.Serve accept-loop shape (shared
// shutdown channel) generalized from "accept connections, hand to a
// handler" into "pump messages between two already-connected
// endpoints"; one loop pumps both directions in turn.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package proxy

import (
	"sync"
	"time"

	"github.com/vorjdux/monocoque/api"
	"github.com/vorjdux/monocoque/wire"
)

// Endpoint is the minimal send/recv surface a proxy forwards between.
// package pattern's XPub, XSub, Dealer, Router, Req, Rep, and Pair
// satisfy this; Push (no Recv) and Pull (no Send) do not.
type Endpoint interface {
	Send(frames [][]byte) error
	Recv() (wire.Message, error)
}

// Sink is a write-only capture destination (spec.md §4.9's capture
// socket): every message crossing the proxy in either direction is
// also sent here, unmodified, for offline inspection.
type Sink interface {
	Send(frames [][]byte) error
}

// Control is the steering interface: Poll returns the next pending
// command, or ok=false if none is waiting. Commands are the literal
// strings "PAUSE", "RESUME", "TERMINATE" (spec.md §4.9).
type Control interface {
	Poll() (cmd string, ok bool)
}

func toFrames(m wire.Message) [][]byte {
	out := make([][]byte, len(m))
	for i, f := range m {
		out[i] = f.Payload.Bytes()
	}
	return out
}

// Proxy runs a bidirectional forwarder between frontend and backend.
type Proxy struct {
	frontend Endpoint
	backend  Endpoint
	capture  Sink
	control  Control

	pauseMu sync.Mutex
	paused  bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a Proxy. capture and control may be nil.
func New(frontend, backend Endpoint, capture Sink, control Control) *Proxy {
	return &Proxy{frontend: frontend, backend: backend, capture: capture, control: control, stop: make(chan struct{})}
}

// Run pumps both directions until Stop is called or an unrecoverable
// error occurs on either endpoint. It polls the control channel between
// each pass so TERMINATE/PAUSE/RESUME take effect promptly without
// needing a separate goroutine per direction (spec.md §4.9 steerable
// proxies are driven from a single thread by design, so ordering
// between frontend and backend traffic stays deterministic).
func (p *Proxy) Run() error {
	for {
		select {
		case <-p.stop:
			return nil
		default:
		}
		p.applyControl()

		if p.isPaused() {
			time.Sleep(time.Millisecond)
			continue
		}

		movedFwd, err := p.pump(p.frontend, p.backend)
		if err != nil && err != api.ErrWouldBlock {
			return err
		}
		movedBwd, err := p.pump(p.backend, p.frontend)
		if err != nil && err != api.ErrWouldBlock {
			return err
		}
		if !movedFwd && !movedBwd {
			time.Sleep(time.Millisecond)
		}
	}
}

func (p *Proxy) pump(from, to Endpoint) (bool, error) {
	msg, err := from.Recv()
	if err != nil {
		return false, err
	}
	frames := toFrames(msg)
	if p.capture != nil {
		_ = p.capture.Send(frames)
	}
	return true, to.Send(frames)
}

func (p *Proxy) applyControl() {
	if p.control == nil {
		return
	}
	for {
		cmd, ok := p.control.Poll()
		if !ok {
			return
		}
		switch cmd {
		case "PAUSE":
			p.pauseMu.Lock()
			p.paused = true
			p.pauseMu.Unlock()
		case "RESUME":
			p.pauseMu.Lock()
			p.paused = false
			p.pauseMu.Unlock()
		case "TERMINATE":
			p.Stop()
		}
	}
}

func (p *Proxy) isPaused() bool {
	p.pauseMu.Lock()
	defer p.pauseMu.Unlock()
	return p.paused
}

// Stop signals Run to return. Idempotent.
func (p *Proxy) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}
