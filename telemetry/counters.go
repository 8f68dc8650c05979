// Package telemetry holds the engine's observational counters: plain
// atomic int64s, optionally exported to Prometheus. Nothing here feeds
// back into protocol decisions — see engine.Registers's stats field.
package telemetry

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counters tracks per-engine byte and frame traffic: the kind of running
// totals a broker publishes on its $SYS topics, kept here instead as plain
// exportable counters.
type Counters struct {
	BytesSent       int64
	BytesReceived   int64
	FramesSent      int64
	FramesReceived  int64
	PingsSent       int64
	PingTimeouts    int64
	InFlightCurrent int64
	InFlightPeak    int64
}

// AddBytesSent increments BytesSent and FramesSent atomically.
func (c *Counters) AddBytesSent(n int) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.BytesSent, int64(n))
	atomic.AddInt64(&c.FramesSent, 1)
}

// AddBytesReceived increments BytesReceived and FramesReceived atomically.
func (c *Counters) AddBytesReceived(n int) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.BytesReceived, int64(n))
	atomic.AddInt64(&c.FramesReceived, 1)
}

func (c *Counters) AddPingSent() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.PingsSent, 1)
}

func (c *Counters) AddPingTimeout() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.PingTimeouts, 1)
}

// SetInFlight records the current in-flight count and bumps the
// high-water mark if it was exceeded.
func (c *Counters) SetInFlight(n int) {
	if c == nil {
		return
	}
	atomic.StoreInt64(&c.InFlightCurrent, int64(n))
	for {
		peak := atomic.LoadInt64(&c.InFlightPeak)
		if int64(n) <= peak {
			return
		}
		if atomic.CompareAndSwapInt64(&c.InFlightPeak, peak, int64(n)) {
			return
		}
	}
}

// Clone returns a point-in-time, non-atomic copy suitable for display or
// serialization.
func (c *Counters) Clone() Counters {
	if c == nil {
		return Counters{}
	}
	return Counters{
		BytesSent:       atomic.LoadInt64(&c.BytesSent),
		BytesReceived:   atomic.LoadInt64(&c.BytesReceived),
		FramesSent:      atomic.LoadInt64(&c.FramesSent),
		FramesReceived:  atomic.LoadInt64(&c.FramesReceived),
		PingsSent:       atomic.LoadInt64(&c.PingsSent),
		PingTimeouts:    atomic.LoadInt64(&c.PingTimeouts),
		InFlightCurrent: atomic.LoadInt64(&c.InFlightCurrent),
		InFlightPeak:    atomic.LoadInt64(&c.InFlightPeak),
	}
}

// RegisterPrometheusMetrics wires c's fields into registry as counter/gauge
// funcs.
func (c *Counters) RegisterPrometheusMetrics(registry prometheus.Registerer) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	type metric struct {
		kind  string
		name  string
		help  string
		value *int64
	}

	metrics := []metric{
		{"c", "mqttengine_bytes_sent", "Total bytes written to the transport", &c.BytesSent},
		{"c", "mqttengine_bytes_received", "Total bytes read from the transport", &c.BytesReceived},
		{"c", "mqttengine_frames_sent", "Total frames written to the transport", &c.FramesSent},
		{"c", "mqttengine_frames_received", "Total frames decoded from the transport", &c.FramesReceived},
		{"c", "mqttengine_pings_sent", "Total PINGREQ frames sent", &c.PingsSent},
		{"c", "mqttengine_ping_timeouts", "Total keep-alive timeouts with no PINGRESP", &c.PingTimeouts},
		{"g", "mqttengine_inflight_current", "Current number of unacknowledged QoS>0 frames", &c.InFlightCurrent},
		{"g", "mqttengine_inflight_peak", "Peak number of unacknowledged QoS>0 frames observed", &c.InFlightPeak},
	}

	for _, m := range metrics {
		m := m
		fn := func() float64 { return float64(atomic.LoadInt64(m.value)) }
		switch m.kind {
		case "c":
			registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{Name: m.name, Help: m.help}, fn))
		case "g":
			registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: m.name, Help: m.help}, fn))
		}
	}
}
