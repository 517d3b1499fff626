package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/diseasepredict/diseasepredict/server/internal/config"
	"github.com/diseasepredict/diseasepredict/server/internal/metrics"
	"github.com/diseasepredict/diseasepredict/server/internal/middleware"
	"github.com/diseasepredict/diseasepredict/server/internal/predict"
)

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	srv := httptest.NewServer(newHandler(cfg, predict.Default(), m, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, m
}

func TestServer_EndToEnd(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Infectious Disease Prediction API", body["message"])
}

func TestServer_PredictFollowsRedirect(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	body := `{"country":"UK","population":67000000,"confirmed_cases":500000,"deaths":20000,"vaccinations":450000}`
	resp, err := http.Post(srv.URL+"/predict-infection-rate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	base := 500000.0 / 67000000.0 * 100
	rate := out["predicted_infection_rate"]
	assert.GreaterOrEqual(t, rate, 0.9*base-0.005)
	assert.LessOrEqual(t, rate, 1.1*base+0.005)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/predict-infection-rate/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/covid-data/")
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(resp.Body)
	require.NoError(t, err)

	var covid float64
	for _, m := range mfs["http_requests_total"].GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "route" && lp.GetValue() == "/covid-data/" {
				covid += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 3.0, covid)
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = false
	srv, _ := newTestServer(t, cfg)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := "http://" + ln.Addr().String() + "/"

	srv := &http.Server{Handler: newHandler(config.Default(), predict.Default(), metrics.New(), zap.NewNop())}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln, time.Second, zaptest.NewLogger(t)) }()

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	client.CloseIdleConnections()
	_, err = client.Get(url)
	assert.Error(t, err, "listener should be closed after shutdown")
}

func TestServe_ReturnsServeError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	srv := &http.Server{Handler: http.NotFoundHandler()}
	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), srv, ln, time.Second, zaptest.NewLogger(t)) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return on a closed listener")
	}
}

func TestLogTotals(t *testing.T) {
	m := metrics.New()
	m.ObserveRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
	m.ObserveRequest("/predict-infection-rate/", http.MethodPost, http.StatusOK, time.Millisecond)
	m.ObservePrediction(metrics.OutcomeOK, 0.75)

	core, logs := observer.New(zapcore.InfoLevel)
	logTotals(zap.New(core), m)

	entries := logs.FilterMessage("request totals").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, 2.0, fields["http_requests_total"])
	assert.Equal(t, 1.0, fields["infection_rate_predictions_total"])
}
