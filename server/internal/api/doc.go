// Package api implements the HTTP JSON API of diseasepredict-server.
//
// New(opts) returns a Handler that serves:
//
//	GET  /                        — fixed greeting
//	GET  /covid-data/             — the seeded stats list, unfiltered
//	POST /predict-infection-rate/ — jittered infection rate for one country
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 (with Allow) for other methods and 404 for unknown paths
//
// The slash-less forms of the two collection paths redirect with 307 so a
// POST stays a POST.
//
// Prediction bodies are decoded into PredictionRequest and checked with
// go-playground/validator: every field is required and must carry its JSON
// type, otherwise the response is 422 with per-field detail. A population of
// zero is not a client error: it answers 200 {"error": "Population cannot be
// zero"}, which is what existing clients expect.
//
// JSON types are defined in types.go.
package api
