// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coderoom_open_connections",
		Help: "Currently open websocket connections.",
	})

	OpenRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coderoom_open_rooms",
		Help: "Rooms currently held in the registry.",
	})

	EventsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coderoom_events_routed_total",
		Help: "Inbound client events by wire type.",
	}, []string{"type"})

	SignalsRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coderoom_signals_relayed_total",
		Help: "Signaling envelopes forwarded between peers.",
	})

	DroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coderoom_dropped_frames_total",
		Help: "Outbound events dropped on backpressure.",
	})
)
