package validation

import (
	"fmt"

	"github.com/2beens/fitrank/internal/scoring"
)

type WeightsResult struct {
	Valid   bool            `json:"valid"`
	Errors  []string        `json:"errors"`
	Weights scoring.Weights `json:"weights"`
}

// ValidateWeights checks a raw weight configuration: all four keys present,
// each in [0,1], summing to 1.0 within the tolerance. Missing keys and range
// violations are reported together; the sum is only checked once all keys are present.
func ValidateWeights(raw map[string]any) WeightsResult {
	var (
		errs    []string
		weights scoring.Weights
	)

	for _, key := range []struct {
		name string
		dst  *float64
	}{
		{"strength", &weights.Strength},
		{"stamina", &weights.Stamina},
		{"consistency", &weights.Consistency},
		{"improvement", &weights.Improvement},
	} {
		rawValue, ok := raw[key.name]
		if !ok || rawValue == nil {
			errs = append(errs, fmt.Sprintf("missing weight: %s", key.name))
			continue
		}
		v, ok := toFloat(rawValue)
		if !ok {
			errs = append(errs, fmt.Sprintf("weight %s must be a number", key.name))
			continue
		}
		*key.dst = v
	}

	if len(errs) > 0 {
		return WeightsResult{Valid: false, Errors: append(errs, weights.RangeProblems()...)}
	}

	if problems := weights.Problems(); len(problems) > 0 {
		return WeightsResult{Valid: false, Errors: problems}
	}

	return WeightsResult{Valid: true, Errors: []string{}, Weights: weights}
}
