// Package strategy implements per-agent offer evaluation, concession
// scheduling, and the genetic strategy-evolution engine that adapts strategy
// parameters across negotiation episodes.
package strategy

import "math"

// OfferAssessment classifies an offer against the agent's value band.
type OfferAssessment string

const (
	AssessmentExcellent    OfferAssessment = "excellent"
	AssessmentAcceptable   OfferAssessment = "acceptable"
	AssessmentUnacceptable OfferAssessment = "unacceptable"
)

// Style is the agent's negotiation posture.
type Style string

const (
	StyleCooperative Style = "cooperative"
	StyleCompetitive Style = "competitive"
	StyleIntegrative Style = "integrative"
)

// concessionDecay is the geometric shrink factor per round. Early concessions
// are strictly larger than late ones and the amount stays strictly positive
// until the final round.
const concessionDecay = 0.75

// initialConcessionFraction is the share of the value band conceded in the
// first round.
const initialConcessionFraction = 0.2

// Engine holds one agent's fixed valuation band. All methods are pure
// arithmetic with no oracle dependency.
type Engine struct {
	ReservationValue float64 `json:"reservation_value"`
	TargetValue      float64 `json:"target_value"`
	Style            Style   `json:"style"`
}

// NewEngine creates a strategy engine for one agent.
func NewEngine(reservation, target float64, style Style) *Engine {
	if style == "" {
		style = StyleIntegrative
	}
	return &Engine{
		ReservationValue: reservation,
		TargetValue:      target,
		Style:            style,
	}
}

// EvaluateOffer classifies value against the band. The boundary at exactly
// the reservation value is acceptable, not unacceptable.
func (e *Engine) EvaluateOffer(value float64) OfferAssessment {
	switch {
	case value >= e.TargetValue:
		return AssessmentExcellent
	case value >= e.ReservationValue:
		return AssessmentAcceptable
	default:
		return AssessmentUnacceptable
	}
}

// ConcessionAmount returns how much to concede at roundIndex of maxRounds.
// The schedule shrinks geometrically toward zero as the round index
// approaches maxRounds: monotonically non-increasing, strictly positive until
// the final round.
func (e *Engine) ConcessionAmount(roundIndex, maxRounds int) float64 {
	if maxRounds <= 0 || roundIndex >= maxRounds {
		return 0
	}
	if roundIndex < 0 {
		roundIndex = 0
	}
	band := math.Abs(e.TargetValue - e.ReservationValue)
	if band == 0 {
		band = math.Max(math.Abs(e.ReservationValue), 1)
	}
	return band * initialConcessionFraction * math.Pow(concessionDecay, float64(roundIndex))
}
