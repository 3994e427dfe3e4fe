package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.InDelta(t, 1.0, DefaultWeights().Sum(), 0.0000001)

	// within tolerance
	assert.NoError(t, Weights{Strength: 0.3, Stamina: 0.25, Consistency: 0.25, Improvement: 0.205}.Validate())

	err := Weights{Strength: 0.5, Stamina: 0.5, Consistency: 0.5, Improvement: 0}.Validate()
	assert.ErrorIs(t, err, ErrInvalidWeights)

	problems := Weights{Strength: -0.2, Stamina: 1.2, Consistency: 0, Improvement: 0}.Problems()
	assert.Len(t, problems, 2)
	assert.Contains(t, problems[0], "strength")
	assert.Contains(t, problems[1], "stamina")

	problems = Weights{Strength: 0.1}.Problems()
	assert.Len(t, problems, 1)
	assert.Contains(t, problems[0], "sum to 1.0")
}
