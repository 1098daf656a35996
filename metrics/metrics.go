// Package metrics exposes Prometheus instrumentation for the signal pipeline.
package metrics

import (
	"net/http"

	"github.com/lukehollenback/gander/constants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ObservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: constants.MetricsNamespace, Name: "observations_total", Help: "Price observations routed into consolidators"},
		[]string{"symbol"},
	)
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: constants.MetricsNamespace, Name: "bars_total", Help: "Consolidated candles fed into indicators"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: constants.MetricsNamespace, Name: "signals_total", Help: "Signals emitted"},
		[]string{"symbol", "direction"},
	)
	SuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: constants.MetricsNamespace, Name: "signals_suppressed_total", Help: "Signals suppressed because the direction did not change"},
		[]string{"symbol"},
	)
	TrackedInstruments = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: constants.MetricsNamespace, Name: "tracked_instruments", Help: "Instruments currently tracked by the alpha model"},
	)
)

func init() {
	prometheus.MustRegister(ObservationsTotal, BarsTotal, SignalsTotal, SuppressedTotal, TrackedInstruments)
}

// Serve exposes /metrics on addr in a background goroutine.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
