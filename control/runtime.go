// control/runtime.go
// Author: momentics <momentics@gmail.com>
//
// Runtime bundles the ambient stack (metrics, logging, config,
// debug probes) into the one value socket.Base and cmd/zmtpctl hold for
// the lifetime of a process, so each of those pieces gets a real call
// site instead of sitting unreferenced beside the packages that should
// be driving it.

package control

import "github.com/sirupsen/logrus"

// Runtime is the process-wide ambient stack passed into socket.NewBase
// via socket.WithRuntime. A nil *Runtime is valid everywhere — every
// caller that threads one through checks for nil before dereferencing,
// so tests can skip it.
type Runtime struct {
	Metrics *Metrics
	Logger  *logrus.Logger
	Config  *ConfigStore
	Debug   *DebugProbes
}

// NewRuntime wires a fresh Metrics/Logger/ConfigStore/DebugProbes
// quadruple together: platform probes are registered against Debug, a
// "config.snapshot" probe makes a DumpState call reflect the live
// ConfigStore snapshot, a config reload logs and calls TriggerHotReload,
// and a registered hot-reload hook touches Metrics.
func NewRuntime() *Runtime {
	r := &Runtime{
		Metrics: NewMetrics(),
		Logger:  NewLogger(),
		Config:  NewConfigStore(),
		Debug:   NewDebugProbes(),
	}
	RegisterPlatformProbes(r.Debug)
	r.Debug.RegisterProbe("config.snapshot", func() any {
		return r.Config.GetSnapshot()
	})
	r.Config.OnReload(func() {
		r.Logger.WithField("keys", len(r.Config.GetSnapshot())).Info("config reloaded")
		TriggerHotReload()
	})
	RegisterReloadHook(func() {
		r.Metrics.touch()
	})
	return r
}
