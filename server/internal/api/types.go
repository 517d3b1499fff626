package api

import "github.com/diseasepredict/diseasepredict/server/internal/stats"

// MessageResponse is the payload for GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// CovidDataResponse is the payload for GET /covid-data/.
type CovidDataResponse struct {
	CovidStats []stats.Record `json:"covid_stats"`
}

// PredictionRequest is the body of POST /predict-infection-rate/.
// Pointers distinguish a missing field from a zero value.
type PredictionRequest struct {
	Country        *string `json:"country" validate:"required"`
	Population     *int64  `json:"population" validate:"required"`
	ConfirmedCases *int64  `json:"confirmed_cases" validate:"required"`
	Deaths         *int64  `json:"deaths" validate:"required"`
	Vaccinations   *int64  `json:"vaccinations" validate:"required"`
}

// PredictionResponse is the success payload for POST /predict-infection-rate/.
type PredictionResponse struct {
	PredictedInfectionRate float64 `json:"predicted_infection_rate"`
}

// FieldError describes one rejected field of a request body.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error  string       `json:"error"`
	Detail []FieldError `json:"detail,omitempty"`
}
