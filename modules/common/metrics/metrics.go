package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - 파이프라인 관측용 카운터/히스토그램
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
}

// New registers pipeline metrics on reg (or the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pdl_generation_requests_total",
			Help: "Generation requests by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdl_generation_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration for successful requests.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler - /metrics 핸들러
func Handler() http.Handler {
	return promhttp.Handler()
}
