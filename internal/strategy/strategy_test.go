package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Offer Evaluation Tests
// =============================================================================

func TestEvaluateOfferBands(t *testing.T) {
	engine := NewEngine(400, 600, StyleIntegrative)

	tests := []struct {
		value float64
		want  OfferAssessment
	}{
		{700, AssessmentExcellent},
		{600, AssessmentExcellent}, // boundary inclusive
		{599.99, AssessmentAcceptable},
		{400, AssessmentAcceptable}, // reservation boundary inclusive
		{399.99, AssessmentUnacceptable},
		{0, AssessmentUnacceptable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.EvaluateOffer(tt.value), "value %.2f", tt.value)
	}
}

func TestNewEngineDefaultsStyle(t *testing.T) {
	engine := NewEngine(100, 200, "")
	assert.Equal(t, StyleIntegrative, engine.Style)
}

// =============================================================================
// Concession Schedule Tests
// =============================================================================

func TestConcessionMonotonicallyNonIncreasing(t *testing.T) {
	engine := NewEngine(400, 600, StyleCooperative)
	maxRounds := 10

	prev := engine.ConcessionAmount(0, maxRounds)
	assert.Positive(t, prev)
	for round := 1; round < maxRounds; round++ {
		current := engine.ConcessionAmount(round, maxRounds)
		assert.Positive(t, current, "round %d", round)
		assert.LessOrEqual(t, current, prev, "round %d", round)
		prev = current
	}
}

func TestConcessionZeroAtAndPastCap(t *testing.T) {
	engine := NewEngine(400, 600, StyleCompetitive)

	assert.Zero(t, engine.ConcessionAmount(10, 10))
	assert.Zero(t, engine.ConcessionAmount(15, 10))
	assert.Zero(t, engine.ConcessionAmount(0, 0))
}

func TestConcessionFirstRoundFraction(t *testing.T) {
	engine := NewEngine(400, 600, StyleIntegrative)
	// 20% of the 200-wide band.
	assert.InDelta(t, 40.0, engine.ConcessionAmount(0, 10), 1e-9)
}

func TestConcessionDegenerateBand(t *testing.T) {
	engine := NewEngine(500, 500, StyleIntegrative)
	assert.Positive(t, engine.ConcessionAmount(0, 10), "zero-width band still concedes")
}
