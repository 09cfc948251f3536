package internal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects request, commit and search counters on a private
// registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	commits  *prometheus.CounterVec
	search   prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitwiki",
			Name:      "requests_total",
			Help:      "Requests served, by method, page intent and status code.",
		}, []string{"method", "intent", "code"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitwiki",
			Name:      "commits_total",
			Help:      "Commit attempts, by result.",
		}, []string{"result"}),
		search: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gitwiki",
			Name:      "search_duration_seconds",
			Help:      "Time spent searching the head revision.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.requests, m.commits, m.search)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method string, intent PageIntent, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, intent.String(), strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeCommit(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commits.WithLabelValues(result).Inc()
}

func (m *Metrics) observeSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.search.Observe(d.Seconds())
}
