package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutations counts committed attendance mutations by operation.
var Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "classtrack_attendance_mutations_total",
	Help: "Committed attendance mutations by operation.",
}, []string{"op"})

// EventsPublished counts realtime events handed to the bus.
var EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
	Name: "classtrack_realtime_events_published_total",
	Help: "Realtime events published to the fan-out bus.",
})

// EventsDelivered counts event frames written to websocket clients.
var EventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "classtrack_realtime_events_delivered_total",
	Help: "Event frames delivered to connected clients.",
})

// Connections tracks currently open websocket connections.
var Connections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "classtrack_realtime_connections",
	Help: "Open websocket connections.",
})
