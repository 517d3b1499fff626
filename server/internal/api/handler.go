package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/diseasepredict/diseasepredict/server/internal/metrics"
	"github.com/diseasepredict/diseasepredict/server/internal/middleware"
	"github.com/diseasepredict/diseasepredict/server/internal/predict"
	"github.com/diseasepredict/diseasepredict/server/internal/stats"
)

// Route paths.
const (
	PathRoot    = "/"
	PathCovid   = "/covid-data/"
	PathPredict = "/predict-infection-rate/"
)

// Greeting is the message returned by GET /.
const Greeting = "Infectious Disease Prediction API"

// ZeroPopulationMessage is the error payload for a zero population.
const ZeroPopulationMessage = "Population cannot be zero"

// DefaultMaxBodyBytes caps request bodies when Options leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Options configures a Handler. Nil fields get working defaults.
type Options struct {
	Predictor    *predict.Predictor
	Metrics      *metrics.Metrics // optional
	Logger       *zap.Logger
	MaxBodyBytes int64
}

// Handler is the HTTP handler for the prediction API.
type Handler struct {
	predictor *predict.Predictor
	metrics   *metrics.Metrics
	logger    *zap.Logger
	decoder   *bodyDecoder
	mux       *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(opts Options) *Handler {
	if opts.Predictor == nil {
		opts.Predictor = predict.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	h := &Handler{
		predictor: opts.Predictor,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		decoder:   newBodyDecoder(opts.MaxBodyBytes),
		mux:       http.NewServeMux(),
	}

	h.mux.HandleFunc(PathRoot, h.root) // catch-all; anything but "/" is 404
	h.mux.HandleFunc(PathCovid, h.covidData)
	h.mux.HandleFunc(PathPredict, h.predictInfectionRate)
	h.mux.Handle("/covid-data", http.RedirectHandler(PathCovid, http.StatusTemporaryRedirect))
	h.mux.Handle("/predict-infection-rate", http.RedirectHandler(PathPredict, http.StatusTemporaryRedirect))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Route returns a bounded metrics label for r: the route path for known
// routes and "other" for everything else.
func Route(r *http.Request) string {
	switch r.URL.Path {
	case PathRoot, PathCovid, PathPredict:
		return r.URL.Path
	default:
		return "other"
	}
}

// --- route handlers ---------------------------------------------------------

// root returns GET / — the fixed greeting.
func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != PathRoot {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, MessageResponse{Message: Greeting})
}

// covidData returns GET /covid-data/ — every seeded record.
func (h *Handler) covidData(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != PathCovid {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, CovidDataResponse{CovidStats: stats.All()})
}

// predictInfectionRate handles POST /predict-infection-rate/.
func (h *Handler) predictInfectionRate(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != PathPredict {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	reqID := middleware.RequestIDFrom(r.Context())

	var req PredictionRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		h.observe(metrics.OutcomeInvalid, 0)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.logger.Debug("prediction: rejected body", zap.String("request_id", reqID), zap.Error(err))
		jsonResp(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "invalid request body",
			Detail: fieldErrors(err),
		})
		return
	}

	cases, population := *req.ConfirmedCases, *req.Population
	rate, err := h.predictor.Predict(cases, population)
	if errors.Is(err, predict.ErrZeroPopulation) {
		h.observe(metrics.OutcomeZeroPopulation, 0)
		h.logger.Debug("prediction: zero population",
			zap.String("request_id", reqID), zap.String("country", *req.Country))
		jsonResp(w, http.StatusOK, errorResponse{Error: ZeroPopulationMessage})
		return
	}
	if err != nil {
		// Predict has no other failure mode today.
		h.logger.Error("prediction failed", zap.String("request_id", reqID), zap.Error(err))
		jsonErr(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.observe(metrics.OutcomeOK, rate)
	if ce := h.logger.Check(zap.DebugLevel, "prediction"); ce != nil {
		lo, hi, _ := h.predictor.Bounds(cases, population)
		ce.Write(
			zap.String("request_id", reqID),
			zap.String("country", *req.Country),
			zap.Int64("population", population),
			zap.Int64("confirmed_cases", cases),
			zap.Float64("rate", rate),
			zap.Float64("lower_bound", lo),
			zap.Float64("upper_bound", hi),
		)
	}
	jsonResp(w, http.StatusOK, PredictionResponse{PredictedInfectionRate: rate})
}

func (h *Handler) observe(outcome string, rate float64) {
	if h.metrics != nil {
		h.metrics.ObservePrediction(outcome, rate)
	}
}
