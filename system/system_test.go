package system

import (
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	info := &Info{Version: "1.0.0"}
	atomic.AddInt64(&info.BytesReceived, 100)
	atomic.AddInt64(&info.MessagesDropped, 3)
	atomic.AddInt64(&info.SessionsActive, 2)

	c := info.Clone()
	assert.Equal(t, "1.0.0", c.Version)
	assert.Equal(t, int64(100), c.BytesReceived)
	assert.Equal(t, int64(3), c.MessagesDropped)
	assert.Equal(t, int64(2), c.SessionsActive)

	// The clone is detached from the original.
	atomic.AddInt64(&info.BytesReceived, 1)
	assert.Equal(t, int64(100), c.BytesReceived)
}

func TestRegisterPrometheusMetrics(t *testing.T) {
	info := &Info{Version: "test"}
	atomic.AddInt64(&info.MessagesSent, 7)

	registry := prometheus.NewRegistry()
	info.RegisterPrometheusMetrics(registry)

	families, err := registry.Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				found[fam.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				found[fam.GetName()] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, float64(7), found["herald_messages_sent"])
	assert.Contains(t, found, "herald_sessions_active")
	assert.Contains(t, found, "herald_build_info")
}
