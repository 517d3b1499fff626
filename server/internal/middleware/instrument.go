package middleware

import (
	"net/http"
	"time"

	"github.com/diseasepredict/diseasepredict/server/internal/metrics"
)

// Instrument records request count and latency. route maps a request to a
// bounded label value so unknown paths cannot blow up cardinality.
func Instrument(m *metrics.Metrics, route func(*http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			m.ObserveRequest(route(r), r.Method, rec.status, time.Since(start))
		})
	}
}
