package modules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.accord.negotiation/internal/negotiation"
)

// =============================================================================
// Confidence Estimation Tests
// =============================================================================

func TestConfidenceGrowsWithObservations(t *testing.T) {
	uncertainty := NewUncertaintyManagement(nil, quietLogger())

	assert.Zero(t, uncertainty.Confidence("seller"), "no observations, no confidence")

	rc := negotiation.NewRoundContext("neg-1", []string{"buyer", "seller"}, negotiation.PhaseBargaining, 2)
	rc.SharedData[negotiation.SharedKeyLastActor] = "seller"

	prev := 0.0
	for i := 0; i < 5; i++ {
		_, err := uncertainty.ObservationContext(context.Background(), "buyer", rc)
		require.NoError(t, err)
		current := uncertainty.Confidence("seller")
		assert.Greater(t, current, prev)
		prev = current
	}
	assert.Less(t, prev, 1.0, "confidence saturates below certainty")
}

func TestObservationNotCountedAgainstSelf(t *testing.T) {
	uncertainty := NewUncertaintyManagement(nil, quietLogger())

	rc := negotiation.NewRoundContext("neg-1", []string{"buyer", "seller"}, negotiation.PhaseBargaining, 2)
	rc.SharedData[negotiation.SharedKeyLastActor] = "buyer"

	_, err := uncertainty.ObservationContext(context.Background(), "buyer", rc)
	require.NoError(t, err)
	assert.Zero(t, uncertainty.Confidence("buyer"))
}

// =============================================================================
// Observation Context Tests
// =============================================================================

func TestUncertaintyObservationBelowThreshold(t *testing.T) {
	uncertainty := NewUncertaintyManagement(nil, quietLogger())

	rc := negotiation.NewRoundContext("neg-1", []string{"buyer", "seller"}, negotiation.PhaseOpening, 1)
	text, err := uncertainty.ObservationContext(context.Background(), "buyer", rc)
	require.NoError(t, err)

	assert.Contains(t, text, "[UNCERTAINTY MANAGEMENT]")
	assert.Contains(t, text, "below threshold")
	assert.Contains(t, text, "conservative", "default risk tolerance is low")
}

func TestUncertaintyObservationSufficientUnderstanding(t *testing.T) {
	uncertainty := NewUncertaintyManagement(&UncertaintyConfig{
		ConfidenceThreshold:        0.5,
		RiskTolerance:              0.8,
		InformationGatheringBudget: 0.1,
	}, quietLogger())

	rc := negotiation.NewRoundContext("neg-1", []string{"buyer", "seller"}, negotiation.PhaseBargaining, 4)
	rc.SharedData[negotiation.SharedKeyLastActor] = "seller"

	// n/(n+3) crosses 0.5 after three observations.
	for i := 0; i < 3; i++ {
		_, err := uncertainty.ObservationContext(context.Background(), "buyer", rc)
		require.NoError(t, err)
	}
	text, err := uncertainty.ObservationContext(context.Background(), "buyer", rc)
	require.NoError(t, err)

	assert.Contains(t, text, "sufficient")
	assert.Contains(t, text, "tolerant", "high risk tolerance shades the posture")
}

func TestUncertaintyConfigIndependentDials(t *testing.T) {
	// A high confidence threshold does not couple to risk tolerance.
	uncertainty := NewUncertaintyManagement(&UncertaintyConfig{ConfidenceThreshold: 0.9}, quietLogger())
	assert.InDelta(t, 0.9, uncertainty.cfg.ConfidenceThreshold, 1e-9)
	assert.InDelta(t, 0.3, uncertainty.cfg.RiskTolerance, 1e-9, "unset dial keeps its default")
}
