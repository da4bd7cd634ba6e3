package infra_prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "klick"

type Counter interface {
	Count() int
}

// Collectors report registry sizes and hub traffic.
type Collectors struct {
	broadcasts *prometheus.CounterVec
	dropped    prometheus.Counter
}

func MustRegister(reg prometheus.Registerer, rooms, sessions Counter) *Collectors {
	c := &Collectors{
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Events sent to room groups, by event type.",
		}, []string{"event"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_frames_total",
			Help:      "Frames dropped because a client's send buffer was full.",
		}),
	}

	reg.MustRegister(
		c.broadcasts,
		c.dropped,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms currently held in memory.",
		}, func() float64 { return float64(rooms.Count()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Connections bound to a room.",
		}, func() float64 { return float64(sessions.Count()) }),
	)
	return c
}

func (c *Collectors) BroadcastSent(event string) {
	c.broadcasts.WithLabelValues(event).Inc()
}

func (c *Collectors) FrameDropped() {
	c.dropped.Inc()
}
