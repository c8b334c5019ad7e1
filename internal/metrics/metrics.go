package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder concentra as métricas da API. Um *Recorder nil é válido e não faz nada.
type Recorder struct {
	quotes       *prometheus.CounterVec
	taxEstimates *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return &Recorder{}
	}
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_total",
		Help: "Quantity discount quotes computed.",
	}, []string{"schedule"})
	taxEstimates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tax_estimates_total",
		Help: "Simples Nacional estimates computed, by annex and bracket.",
	}, []string{"annex", "faixa"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(quotes, taxEstimates, httpDuration)
	return &Recorder{quotes: quotes, taxEstimates: taxEstimates, httpDuration: httpDuration}
}

func (r *Recorder) IncQuote(schedule string) {
	if r == nil || r.quotes == nil {
		return
	}
	r.quotes.WithLabelValues(normalizeLabel(schedule)).Inc()
}

func (r *Recorder) IncTaxEstimate(annex string, faixa int) {
	if r == nil || r.taxEstimates == nil {
		return
	}
	r.taxEstimates.WithLabelValues(normalizeLabel(annex), strconv.Itoa(faixa)).Inc()
}

func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil || r.httpDuration == nil {
		return
	}
	r.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
