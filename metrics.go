// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics tracks the resources a Factory holds while a call is in flight.
// The gauges return to their previous value after every call that does not
// hand a stream to the caller.
type metrics struct {
	// handles counts sockets owned by an attempt: connected but not yet
	// closed or handed over.
	handles prometheus.Gauge

	// timers counts armed connect deadlines.
	timers prometheus.Gauge

	// registrations counts context cancellation callbacks.
	registrations prometheus.Gauge

	// attempts counts settled races by outcome.
	attempts *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		handles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tcpstream",
			Name:      "live_handles",
			Help:      "Connected sockets owned by an in-flight attempt.",
		}),
		timers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tcpstream",
			Name:      "live_timers",
			Help:      "Armed connect deadline timers.",
		}),
		registrations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tcpstream",
			Name:      "live_cancel_registrations",
			Help:      "Registered context cancellation callbacks.",
		}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcpstream",
			Name:      "attempts_total",
			Help:      "Settled connect races by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.handles, m.timers, m.registrations, m.attempts}
}

func (m *metrics) observe(kind OutcomeKind) {
	m.attempts.WithLabelValues(kind.String()).Inc()
}
