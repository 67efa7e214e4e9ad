package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the booking chat flow.
type ChatMetrics struct {
	turnsTotal    *prometheus.CounterVec
	bookingsTotal *prometheus.CounterVec
	turnLatency   *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vietcare",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total dialogue turns processed, by the need being collected",
		}, []string{"need"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vietcare",
			Subsystem: "chat",
			Name:      "bookings_total",
			Help:      "Total booking submissions",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vietcare",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one dialogue turn including gateway calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"need"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.turnLatency)
	return m
}

func (m *ChatMetrics) ObserveTurn(need string) {
	if m == nil {
		return
	}
	if need == "" {
		need = "start"
	}
	m.turnsTotal.WithLabelValues(need).Inc()
}

func (m *ChatMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveTurnLatency(need string, seconds float64) {
	if m == nil {
		return
	}
	if need == "" {
		need = "start"
	}
	m.turnLatency.WithLabelValues(need).Observe(seconds)
}
