package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveTurn("hospital")
	m.ObserveTurn("")
	m.ObserveBooking("success")
	m.ObserveTurnLatency("slot", 0.25)
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveTurn("hospital")
	m.ObserveBooking("failure")
	m.ObserveTurnLatency("", 0.1)
}
