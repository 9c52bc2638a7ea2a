// Package metrics holds the process-wide Prometheus collectors, exposed on
// /metrics by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wordrush_rooms_active",
		Help: "Number of rooms currently held by the session directory.",
	})

	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wordrush_connections_open",
		Help: "Number of open websocket connections across all rooms.",
	})

	MessagesIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wordrush_messages_in_total",
		Help: "Inbound game messages processed, by type.",
	}, []string{"type"})

	GamesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wordrush_games_finished_total",
		Help: "Games that reached the ended state.",
	})
)
