package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"holidayhub/internal/domain/leave"
)

// Collector owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Collector struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	creditMutations *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	sideEffects     *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holidayhub_http_requests_total",
				Help: "How many HTTP requests processed, partitioned by status code, method and route.",
			},
			[]string{"code", "method", "route"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "holidayhub_http_request_duration_seconds",
				Help:    "The HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code", "method", "route"},
		),
		creditMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holidayhub_credit_mutations_total",
				Help: "Credit ledger mutations, partitioned by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holidayhub_request_transitions_total",
				Help: "Holiday request status transitions.",
			},
			[]string{"status"},
		),
		sideEffects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holidayhub_side_effects_total",
				Help: "Notification and calendar side effects, partitioned by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "holidayhub_job_duration_seconds",
				Help:    "Background job run time in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job", "outcome"},
		),
	}
	c.registry.MustRegister(
		c.requestCount,
		c.requestDuration,
		c.creditMutations,
		c.transitions,
		c.sideEffects,
		c.jobDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) Record(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	c.requestCount.WithLabelValues(code, method, route).Inc()
	c.requestDuration.WithLabelValues(code, method, route).Observe(duration.Seconds())
}

func (c *Collector) CreditMutation(op string, err error) {
	c.creditMutations.WithLabelValues(op, outcome(err)).Inc()
}

func (c *Collector) RequestTransition(status leave.Status) {
	c.transitions.WithLabelValues(string(status)).Inc()
}

func (c *Collector) SideEffect(kind string, err error) {
	c.sideEffects.WithLabelValues(kind, outcome(err)).Inc()
}

// JobDone matches the jobs.Service OnDone hook.
func (c *Collector) JobDone(name string, duration time.Duration, err error) {
	c.jobDuration.WithLabelValues(name, outcome(err)).Observe(duration.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
