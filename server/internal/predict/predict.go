package predict

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Default jitter bounds.
const (
	DefaultJitterMin = 0.9
	DefaultJitterMax = 1.1
)

// ErrZeroPopulation is returned by Predict when population is 0.
var ErrZeroPopulation = errors.New("population cannot be zero")

// Source yields uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// globalSource draws from the math/rand/v2 top-level generator, which is
// safe for concurrent use.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Fixed is a Source that always returns the same value.
type Fixed float64

// Float64 implements Source.
func (f Fixed) Float64() float64 { return float64(f) }

// Predictor computes jittered infection rates.
type Predictor struct {
	min, max float64
	src      Source
}

// New returns a Predictor drawing jitter from [min, max) using src.
// A nil src selects the global generator.
func New(min, max float64, src Source) (*Predictor, error) {
	if min <= 0 || max < min {
		return nil, fmt.Errorf("predict: invalid jitter bounds [%v, %v]", min, max)
	}
	if src == nil {
		src = globalSource{}
	}
	return &Predictor{min: min, max: max, src: src}, nil
}

// Default returns a Predictor with the default bounds and the global generator.
func Default() *Predictor {
	return &Predictor{min: DefaultJitterMin, max: DefaultJitterMax, src: globalSource{}}
}

// Predict returns round2(cases/population*100 * jitter).
func (p *Predictor) Predict(cases, population int64) (float64, error) {
	base, err := BaseRate(cases, population)
	if err != nil {
		return 0, err
	}
	return round2(base * p.jitter()), nil
}

// Bounds returns the inclusive interval a Predict result for the same inputs
// falls in, after rounding.
func (p *Predictor) Bounds(cases, population int64) (lo, hi float64, err error) {
	base, err := BaseRate(cases, population)
	if err != nil {
		return 0, 0, err
	}
	lo, hi = round2(base*p.min), round2(base*p.max)
	if lo > hi {
		// Negative inputs flip the interval.
		lo, hi = hi, lo
	}
	return lo, hi, nil
}

// BaseRate is the unjittered infection rate as a percentage.
func BaseRate(cases, population int64) (float64, error) {
	if population == 0 {
		return 0, ErrZeroPopulation
	}
	return float64(cases) / float64(population) * 100, nil
}

// jitter maps a [0, 1) draw onto [min, max).
func (p *Predictor) jitter() float64 {
	return p.min + (p.max-p.min)*clamp01(p.src.Float64())
}

// round2 rounds v to two decimal places, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
