package monitor

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tictactoe"

type Metrics struct {
	OpenRooms        prometheus.Gauge
	ConnectedClients prometheus.Gauge
	Moves            prometheus.Counter
	GamesFinished    prometheus.Counter
}

// NewMetrics - builds and registers the server metrics on reg. Tests pass
// their own registry so repeated construction never collides.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		OpenRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_rooms",
			Help:      "Number of rooms currently registered",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of open WebSocket connections",
		}),
		Moves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Total number of accepted moves",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Total number of games that reached a terminal state",
		}),
	}

	reg.MustRegister(
		metrics.OpenRooms,
		metrics.ConnectedClients,
		metrics.Moves,
		metrics.GamesFinished,
	)

	return metrics
}
