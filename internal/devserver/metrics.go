package devserver

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	requests *prometheus.CounterVec
	jobs     prometheus.Gauge
	handler  http.Handler
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "summaryoutube",
			Subsystem: "devserver",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		jobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "summaryoutube",
			Subsystem: "devserver",
			Name:      "transcription_jobs_active",
			Help:      "Transcription jobs that have not finished.",
		}),
	}
	reg.MustRegister(m.requests, m.jobs)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

func (m *metrics) observe(method, route string, code int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
