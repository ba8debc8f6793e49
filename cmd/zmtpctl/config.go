// File: cmd/zmtpctl/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vorjdux/monocoque/api"
)

// fileOptions is the on-disk shape of a zmtpctl flag file. It maps onto
// api.Options; a CLI is the one place in this module a config *file*
// makes sense (the library itself takes options as struct values, not
// files — spec.md §6.4).
type fileOptions struct {
	SocketType       string        `yaml:"socket_type"`
	Identity         string        `yaml:"identity"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	RecvTimeout      time.Duration `yaml:"recv_timeout"`
	SendTimeout      time.Duration `yaml:"send_timeout"`
	ReconnectBase    time.Duration `yaml:"reconnect_base"`
	ReconnectMax     time.Duration `yaml:"reconnect_max"`
	RouterMandatory  bool          `yaml:"router_mandatory"`
	RouterHandover   bool          `yaml:"router_handover"`
	ProbeRouter      bool          `yaml:"probe_router"`
	ConnectRoutingID string        `yaml:"connect_routing_id"`
	SendHWM          int           `yaml:"send_hwm"`
	RecvHWM          int           `yaml:"recv_hwm"`
	Linger           time.Duration `yaml:"linger"`

	TCPKeepAlive         bool          `yaml:"tcp_keepalive"`
	TCPKeepAliveCount    int           `yaml:"tcp_keepalive_count"`
	TCPKeepAliveIdle     time.Duration `yaml:"tcp_keepalive_idle"`
	TCPKeepAliveInterval time.Duration `yaml:"tcp_keepalive_interval"`
}

func loadOptionsFile(path string) (api.Options, string, error) {
	var fo fileOptions
	opts := api.DefaultOptions()
	if path == "" {
		return opts, "DEALER", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return opts, "", err
	}
	if err := yaml.Unmarshal(b, &fo); err != nil {
		return opts, "", err
	}
	opts.Identity = []byte(fo.Identity)
	opts.RouterMandatory = fo.RouterMandatory
	opts.RouterHandover = fo.RouterHandover
	opts.ProbeRouter = fo.ProbeRouter
	opts.ConnectRoutingID = []byte(fo.ConnectRoutingID)
	opts.SendHWM = fo.SendHWM
	opts.RecvHWM = fo.RecvHWM
	opts.Linger = fo.Linger
	opts.TCPKeepAlive = fo.TCPKeepAlive
	opts.TCPKeepAliveCount = fo.TCPKeepAliveCount
	opts.TCPKeepAliveIdle = fo.TCPKeepAliveIdle
	opts.TCPKeepAliveInterval = fo.TCPKeepAliveInterval
	if fo.ReconnectBase > 0 {
		opts.ReconnectBase = fo.ReconnectBase
	}
	if fo.ReconnectMax > 0 {
		opts.ReconnectMax = fo.ReconnectMax
	}
	opts.HandshakeTimeout = timeoutFromDuration(fo.HandshakeTimeout)
	opts.RecvTimeout = timeoutFromDuration(fo.RecvTimeout)
	opts.SendTimeout = timeoutFromDuration(fo.SendTimeout)

	socketType := fo.SocketType
	if socketType == "" {
		socketType = "DEALER"
	}
	return opts, socketType, nil
}

func timeoutFromDuration(d time.Duration) api.Timeout {
	if d <= 0 {
		return api.NoTimeout()
	}
	return api.TimeoutAfter(d)
}
