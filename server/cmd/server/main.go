package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/diseasepredict/diseasepredict/server/internal/api"
	"github.com/diseasepredict/diseasepredict/server/internal/config"
	"github.com/diseasepredict/diseasepredict/server/internal/logging"
	"github.com/diseasepredict/diseasepredict/server/internal/metrics"
	"github.com/diseasepredict/diseasepredict/server/internal/middleware"
	"github.com/diseasepredict/diseasepredict/server/internal/predict"
	"github.com/diseasepredict/diseasepredict/server/internal/stats"
)

func main() {
	configPath := flag.String("config", "", "path to config file; leave empty to run on built-in defaults")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger config comes from the file, so fall back to a default one here.
		logger, _ := logging.New(config.DefaultLogLevel)
		logger.Fatal("failed to load config", zap.String("config", *configPath), zap.Error(err))
	}

	logger, level := logging.New(cfg.Log.Level)
	defer logger.Sync() //nolint:errcheck

	logger.Info("diseasepredict-server starting",
		zap.String("config", *configPath),
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.Float64("jitter_min", cfg.Prediction.JitterMin),
		zap.Float64("jitter_max", cfg.Prediction.JitterMax),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Int("stat_records", stats.Len()),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	predictor, err := predict.New(cfg.Prediction.JitterMin, cfg.Prediction.JitterMax, nil)
	if err != nil {
		logger.Fatal("invalid prediction settings", zap.Error(err))
	}

	m := metrics.New()
	handler := newHandler(cfg, predictor, m, logger)

	// Hot-reload applies the log level only; listener and jitter settings
	// need a restart.
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, logger, func(updated *config.Config) {
				level.SetLevel(logging.ParseLevel(updated.Log.Level))
				logger.Info("log level updated", zap.String("level", updated.Log.Level))
			}); err != nil {
				logger.Error("config watcher stopped", zap.Error(err))
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}
	ln, err := net.Listen("tcp", httpSrv.Addr)
	if err != nil {
		logger.Fatal("HTTP listen", zap.String("addr", httpSrv.Addr), zap.Error(err))
	}

	exitCode := 0
	if err := serve(ctx, httpSrv, ln, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
		exitCode = 1
	}
	logTotals(logger, m)

	if exitCode != 0 {
		logger.Sync() //nolint:errcheck
		os.Exit(exitCode)
	}
}

// serve runs srv on ln until ctx is cancelled or Serve fails, then shuts the
// server down, waiting up to shutdownTimeout for in-flight requests. It
// returns the Serve failure, or the Shutdown error after a clean stop.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		serveErr <- srv.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}
	logger.Info("diseasepredict-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if shutErr := srv.Shutdown(shutdownCtx); shutErr != nil {
		logger.Error("HTTP server shutdown", zap.Error(shutErr))
		if err == nil {
			err = shutErr
		}
	}
	return err
}

// logTotals logs the request and prediction counters accumulated over the
// process lifetime.
func logTotals(logger *zap.Logger, m *metrics.Metrics) {
	summary, err := m.Summary("http_requests_total", "infection_rate_predictions_total")
	if err != nil {
		logger.Warn("request totals unavailable", zap.Error(err))
		return
	}
	fields := make([]zap.Field, 0, len(summary))
	for _, name := range metrics.SortedNames(summary) {
		fields = append(fields, zap.Float64(name, summary[name]))
	}
	logger.Info("request totals", fields...)
}

// newHandler assembles the API, the metrics endpoint and the middleware stack.
func newHandler(cfg *config.Config, p *predict.Predictor, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	apiHandler := api.New(api.Options{
		Predictor:    p,
		Metrics:      m,
		Logger:       logger.Named("api"),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	mux := http.NewServeMux()
	mux.Handle("/", apiHandler)
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, m.Handler())
	}

	route := func(r *http.Request) string {
		if cfg.Metrics.Enabled && r.URL.Path == cfg.Metrics.Path {
			return cfg.Metrics.Path
		}
		return api.Route(r)
	}

	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.AccessLog(logger.Named("access")),
		middleware.Instrument(m, route),
		middleware.Recover(logger),
		middleware.CORS(cfg.CORS),
	)
}
