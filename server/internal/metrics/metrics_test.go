package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scrape fetches the exposition from h and parses it into metric families.
func scrape(t *testing.T, h http.Handler) map[string]*dto.MetricFamily {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(rr.Body)
	require.NoError(t, err)
	return mfs
}

// labelled returns the metric in mf whose labels match want, or nil.
func labelled(mf *dto.MetricFamily, want map[string]string) *dto.Metric {
	if mf == nil {
		return nil
	}
	for _, m := range mf.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m
		}
	}
	return nil
}

func TestHandler_ExposesRecordedValues(t *testing.T) {
	m := New()
	m.ObserveRequest("/", http.MethodGet, 200, 3*time.Millisecond)
	m.ObserveRequest("/", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveRequest("/predict-infection-rate/", http.MethodPost, 422, time.Millisecond)
	m.ObservePrediction(OutcomeOK, 0.3)
	m.ObservePrediction(OutcomeZeroPopulation, 0)

	mfs := scrape(t, m.Handler())

	root := labelled(mfs["http_requests_total"], map[string]string{"route": "/", "code": "200"})
	require.NotNil(t, root)
	assert.Equal(t, 2.0, root.GetCounter().GetValue())

	bad := labelled(mfs["http_requests_total"], map[string]string{"code": "422"})
	require.NotNil(t, bad)
	assert.Equal(t, 1.0, bad.GetCounter().GetValue())

	assert.Equal(t, 2.0, SumFamily(mfs["infection_rate_predictions_total"]))

	hist := mfs["predicted_infection_rate_percent"]
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())

	assert.Contains(t, mfs, "go_goroutines")
}

func TestSummary(t *testing.T) {
	m := New()
	m.ObservePrediction(OutcomeOK, 1)
	m.ObservePrediction(OutcomeOK, 2)
	m.ObservePrediction(OutcomeInvalid, 0)

	s, err := m.Summary("infection_rate_predictions_total", "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3.0, s["infection_rate_predictions_total"])
	// Families with no samples are not gathered.
	_, ok := s["http_requests_total"]
	assert.False(t, ok)
	assert.Equal(t, []string{"infection_rate_predictions_total"}, SortedNames(s))

	all, err := m.Summary()
	require.NoError(t, err)
	assert.Contains(t, all, "go_goroutines")
	assert.NotContains(t, all, "predicted_infection_rate_percent", "histograms are skipped")
}

func TestSumFamily_Nil(t *testing.T) {
	assert.Equal(t, 0.0, SumFamily(nil))
}
