package control_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/control"
)

func TestMetricsSnapshotReflectsIncrements(t *testing.T) {
	m := control.NewMetrics()
	m.MessagesSent.WithLabelValues("DEALER", "tcp://a:1").Inc()
	m.MessagesSent.WithLabelValues("DEALER", "tcp://a:1").Inc()
	m.ActiveConnections.WithLabelValues("DEALER", "tcp://a:1").Set(1)

	snap := m.GetSnapshot()
	require.Equal(t, 2.0, snap["zmtp_messages_sent_total"])
	require.Equal(t, 1.0, snap["zmtp_active_connections"])
	require.Contains(t, snap, "last_updated")
}

func TestDebugProbesDumpState(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	state := dp.DumpState()
	require.Equal(t, 42, state["answer"])
}
