package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskora",
		Subsystem: "hub",
		Name:      "connected_clients",
		Help:      "Number of WebSocket clients currently connected.",
	})

	snapshotsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskora",
		Subsystem: "hub",
		Name:      "snapshots_pushed_total",
		Help:      "Total conversation snapshots pushed to subscribers.",
	})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskora",
		Subsystem: "hub",
		Name:      "events_dropped_total",
		Help:      "Total events dropped because a client buffer stayed full.",
	})

	inboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskora",
		Subsystem: "hub",
		Name:      "inbound_events_total",
		Help:      "Total inbound events received from clients, by event type.",
	}, []string{"event"})
)
