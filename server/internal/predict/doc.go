// Package predict computes the perturbed infection rate returned by
// POST /predict-infection-rate/.
//
// The formula is
//
//	base = confirmed_cases / population * 100
//	rate = round2(base * jitter),  jitter ~ U[Min, Max)
//
// with Min/Max defaulting to 0.9/1.1. The jitter is drawn from a Source so
// tests can substitute a fixed value and assert exact results; the default
// source is the goroutine-safe global generator from math/rand/v2.
//
// A zero population yields ErrZeroPopulation rather than Inf or NaN.
package predict
