package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the chat relay counters
type Metrics struct {
	requests  *prometheus.CounterVec
	fragments prometheus.Counter
	duration  prometheus.Histogram
	gatherer  prometheus.Gatherer
}

// NewMetrics registers the relay metrics on reg
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brief_chat_requests_total",
			Help: "Chat requests by outcome",
		}, []string{"outcome"}),
		fragments: factory.NewCounter(prometheus.CounterOpts{
			Name: "brief_chat_fragments_total",
			Help: "Data frames written to chat streams",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "brief_chat_stream_seconds",
			Help:    "Seconds spent streaming one assistant reply",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		gatherer: reg,
	}
}

// Handler exposes the metrics for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
