package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antartida_aemet_api_calls_total",
			Help: "Total AEMET OpenData API calls",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "antartida_aemet_api_latency_seconds",
			Help:    "AEMET API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ObservationsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antartida_observations_fetched_total",
			Help: "Total observation records returned by completed fetches",
		},
		[]string{"station"},
	)

	UpstreamUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "antartida_upstream_up",
			Help: "1 if the most recent upstream availability probe succeeded",
		},
	)
)
