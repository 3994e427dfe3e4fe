package scoring

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidWeights = errors.New("invalid scoring weights")

var weightsValidate = newWeightsValidator()

// newWeightsValidator reports fields by their json name.
func newWeightsValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

const WeightsSumTolerance = 0.01

type Weights struct {
	Strength    float64 `json:"strength" validate:"gte=0,lte=1"`
	Stamina     float64 `json:"stamina" validate:"gte=0,lte=1"`
	Consistency float64 `json:"consistency" validate:"gte=0,lte=1"`
	Improvement float64 `json:"improvement" validate:"gte=0,lte=1"`
}

func DefaultWeights() Weights {
	return Weights{
		Strength:    0.30,
		Stamina:     0.25,
		Consistency: 0.25,
		Improvement: 0.20,
	}
}

func (w Weights) Sum() float64 {
	return w.Strength + w.Stamina + w.Consistency + w.Improvement
}

// Problems lists range and sum violations, empty when the weights are usable.
func (w Weights) Problems() []string {
	problems := w.RangeProblems()
	if sum := w.Sum(); math.IsNaN(sum) || math.Abs(sum-1) > WeightsSumTolerance {
		problems = append(problems, fmt.Sprintf("weights must sum to 1.0 (±%.2f), got %.4f", WeightsSumTolerance, sum))
	}
	return problems
}

// RangeProblems lists the weights outside [0,1], in field order.
func (w Weights) RangeProblems() []string {
	err := weightsValidate.Struct(w)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("weight %s must be between 0 and 1, got %v", fe.Field(), fe.Value()))
	}
	return problems
}

func (w Weights) Validate() error {
	if problems := w.Problems(); len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWeights, problems)
	}
	return nil
}
