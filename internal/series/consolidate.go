package series

import (
	"errors"
	"fmt"

	"github.com/DataDog/sketches-go/ddsketch"
)

// ErrInvalidConsolidationFunc is returned when an unknown aggregation
// name is passed to Consolidate. It is fatal to the fetch that used it.
var ErrInvalidConsolidationFunc = errors.New("invalid consolidation function")

// Relative accuracy for percentile consolidation sketches.
const sketchAccuracy = 0.01

// quantiles maps percentile function names to their quantile.
var quantiles = map[string]float64{
	"p50": 0.50,
	"p90": 0.90,
	"p95": 0.95,
	"p99": 0.99,
}

// Consolidate reduces a set of samples to a single value under a named
// aggregation: sum, average, max, min, or one of the percentile functions
// p50/p90/p95/p99. Missing values are discarded first; if nothing usable
// remains the result is missing, regardless of the function name.
func Consolidate(fn string, values []float64) (float64, error) {
	usable := values[:0:0]
	for _, v := range values {
		if !IsMissing(v) {
			usable = append(usable, v)
		}
	}
	if len(usable) == 0 {
		return Missing(), nil
	}

	switch fn {
	case "sum":
		return sum(usable), nil
	case "average":
		return sum(usable) / float64(len(usable)), nil
	case "max":
		m := usable[0]
		for _, v := range usable[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	case "min":
		m := usable[0]
		for _, v := range usable[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	}

	if q, ok := quantiles[fn]; ok {
		return quantile(q, usable)
	}

	return Missing(), fmt.Errorf("%w: %q", ErrInvalidConsolidationFunc, fn)
}

// ValidConsolidationFunc reports whether fn names a known aggregation.
func ValidConsolidationFunc(fn string) bool {
	switch fn {
	case "sum", "average", "max", "min":
		return true
	}
	_, ok := quantiles[fn]
	return ok
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

// quantile estimates the q-quantile of the values with a DDSketch.
func quantile(q float64, values []float64) (float64, error) {
	sketch, err := ddsketch.NewDefaultDDSketch(sketchAccuracy)
	if err != nil {
		return Missing(), fmt.Errorf("create sketch: %w", err)
	}
	for _, v := range values {
		if err := sketch.Add(v); err != nil {
			return Missing(), fmt.Errorf("sketch add: %w", err)
		}
	}
	v, err := sketch.GetValueAtQuantile(q)
	if err != nil {
		return Missing(), fmt.Errorf("sketch quantile: %w", err)
	}
	return v, nil
}
