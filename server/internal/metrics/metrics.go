package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels for the predictions counter.
const (
	OutcomeOK             = "ok"
	OutcomeZeroPopulation = "zero_population"
	OutcomeInvalid        = "invalid"
)

// Metrics holds every collector the API records into.
type Metrics struct {
	reg *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	predictions *prometheus.CounterVec
	rate        prometheus.Histogram
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests handled, by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "infection_rate_predictions_total",
			Help: "Infection-rate prediction requests, by outcome.",
		}, []string{"outcome"}),
		rate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "predicted_infection_rate_percent",
			Help:    "Distribution of predicted infection rates.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
		}),
	}

	m.reg.MustRegister(
		m.requests,
		m.duration,
		m.predictions,
		m.rate,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObservePrediction records the outcome of one prediction request. rate is
// only recorded for OutcomeOK.
func (m *Metrics) ObservePrediction(outcome string, rate float64) {
	m.predictions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.rate.Observe(rate)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Summary gathers the registry and returns the summed value of each
// counter or gauge family whose name is in names. With no names, every
// counter and gauge family is included.
func (m *Metrics) Summary(names ...string) (map[string]float64, error) {
	mfs, err := m.reg.Gather()
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make(map[string]float64)
	for _, mf := range mfs {
		if len(want) > 0 && !want[mf.GetName()] {
			continue
		}
		switch mf.GetType() {
		case dto.MetricType_COUNTER, dto.MetricType_GAUGE, dto.MetricType_UNTYPED:
			out[mf.GetName()] = SumFamily(mf)
		}
	}
	return out, nil
}

// SumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
// Returns 0 if mf is nil.
func SumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}

// SortedNames returns the keys of a Summary result in lexical order.
func SortedNames(s map[string]float64) []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
