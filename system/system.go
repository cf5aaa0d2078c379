// Package system tracks broker runtime statistics as atomic counters
// and exposes them to Prometheus.
package system

import (
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Info contains atomic counters and values describing the broker's
// activity since it started.
type Info struct {
	Version            string `json:"version"`              // the current version of the broker
	Started            int64  `json:"started"`              // the time the broker started in unix seconds
	Time               int64  `json:"time"`                 // current time on the broker
	Uptime             int64  `json:"uptime"`               // the number of seconds the broker has been online
	BytesReceived      int64  `json:"bytes_received"`       // total number of bytes received since the broker started
	BytesSent          int64  `json:"bytes_sent"`           // total number of bytes sent since the broker started
	SessionsActive     int64  `json:"sessions_active"`      // number of sessions currently open
	SessionsTotal      int64  `json:"sessions_total"`       // total number of sessions ever established
	SessionsMaximum    int64  `json:"sessions_maximum"`     // maximum number of sessions open at once
	MessagesReceived   int64  `json:"messages_received"`    // total number of publish frames received
	MessagesSent       int64  `json:"messages_sent"`        // total number of message frames enqueued to subscribers
	MessagesDropped    int64  `json:"messages_dropped"`     // total number of message frames dropped at full send queues
	Subscriptions      int64  `json:"subscriptions"`        // number of channel subscriptions currently active
	PacketsReceived    int64  `json:"packets_received"`     // total number of frames of any type received
	PacketsSent        int64  `json:"packets_sent"`         // total number of frames of any type sent
	ProtocolViolations int64  `json:"protocol_violations"`  // total number of framing or handshake errors
	MemoryAlloc        int64  `json:"memory_alloc"`         // memory currently allocated; the broker does not set it
	Threads            int64  `json:"threads"`              // number of active goroutines; the broker does not set it
}

// Clone makes a copy of Info using atomic loads.
func (i *Info) Clone() *Info {
	return &Info{
		Version:            i.Version,
		Started:            atomic.LoadInt64(&i.Started),
		Time:               atomic.LoadInt64(&i.Time),
		Uptime:             atomic.LoadInt64(&i.Uptime),
		BytesReceived:      atomic.LoadInt64(&i.BytesReceived),
		BytesSent:          atomic.LoadInt64(&i.BytesSent),
		SessionsActive:     atomic.LoadInt64(&i.SessionsActive),
		SessionsTotal:      atomic.LoadInt64(&i.SessionsTotal),
		SessionsMaximum:    atomic.LoadInt64(&i.SessionsMaximum),
		MessagesReceived:   atomic.LoadInt64(&i.MessagesReceived),
		MessagesSent:       atomic.LoadInt64(&i.MessagesSent),
		MessagesDropped:    atomic.LoadInt64(&i.MessagesDropped),
		Subscriptions:      atomic.LoadInt64(&i.Subscriptions),
		PacketsReceived:    atomic.LoadInt64(&i.PacketsReceived),
		PacketsSent:        atomic.LoadInt64(&i.PacketsSent),
		ProtocolViolations: atomic.LoadInt64(&i.ProtocolViolations),
		MemoryAlloc:        atomic.LoadInt64(&i.MemoryAlloc),
		Threads:            atomic.LoadInt64(&i.Threads),
	}
}

// RegisterPrometheusMetrics registers the counters with a Prometheus
// registry. A nil registry selects the default registerer.
func (i *Info) RegisterPrometheusMetrics(registry prometheus.Registerer) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	type metric struct {
		metricType string
		name       string
		help       string
		value      *int64
	}

	metricsList := []metric{
		{"c", "herald_bytes_received", "A counter of total bytes received", &i.BytesReceived},
		{"c", "herald_bytes_sent", "A counter of total bytes sent", &i.BytesSent},
		{"g", "herald_sessions_active", "A gauge of sessions currently open", &i.SessionsActive},
		{"c", "herald_sessions_total", "A counter of sessions ever established", &i.SessionsTotal},
		{"c", "herald_sessions_maximum", "A counter of the maximum concurrently open sessions", &i.SessionsMaximum},
		{"c", "herald_messages_received", "A counter of publish frames received", &i.MessagesReceived},
		{"c", "herald_messages_sent", "A counter of message frames enqueued to subscribers", &i.MessagesSent},
		{"c", "herald_messages_dropped", "A counter of message frames dropped at full send queues", &i.MessagesDropped},
		{"g", "herald_subscriptions", "A gauge of channel subscriptions currently active", &i.Subscriptions},
		{"c", "herald_packets_received", "A counter of frames of any type received", &i.PacketsReceived},
		{"c", "herald_packets_sent", "A counter of frames of any type sent", &i.PacketsSent},
		{"c", "herald_protocol_violations", "A counter of framing and handshake errors", &i.ProtocolViolations},
	}

	for _, m := range metricsList {
		m := m
		fn := func() float64 {
			return float64(atomic.LoadInt64(m.value))
		}

		switch m.metricType {
		case "c":
			registry.MustRegister(
				prometheus.NewCounterFunc(
					prometheus.CounterOpts{
						Name: m.name,
						Help: m.help,
					},
					fn,
				),
			)
		case "g":
			registry.MustRegister(
				prometheus.NewGaugeFunc(
					prometheus.GaugeOpts{
						Name: m.name,
						Help: m.help,
					},
					fn,
				),
			)
		}
	}

	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "herald_build_info",
			Help: "Build information",
		},
		[]string{"goversion", "version"},
	)
	registry.MustRegister(buildInfo)
	buildInfo.With(prometheus.Labels{"goversion": runtime.Version(), "version": i.Version}).Set(1)
}
