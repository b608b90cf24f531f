package modules

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/negotiation"
)

// TemporalConfig configures the temporal-dynamics module.
type TemporalConfig struct {
	// DiscountFactor weighs future rounds against the present.
	DiscountFactor float64 `json:"discount_factor" yaml:"discount_factor"`
	// ReputationWeight weighs long-term relationship value in the guidance.
	ReputationWeight float64 `json:"reputation_weight" yaml:"reputation_weight"`
	// RelationshipInvestmentThreshold is the deadline-pressure level above
	// which relationship building yields to closing.
	RelationshipInvestmentThreshold float64 `json:"relationship_investment_threshold" yaml:"relationship_investment_threshold"`
}

// DefaultTemporalConfig returns the documented defaults.
func DefaultTemporalConfig() TemporalConfig {
	return TemporalConfig{
		DiscountFactor:                  0.9,
		ReputationWeight:                0.3,
		RelationshipInvestmentThreshold: 0.6,
	}
}

// TemporalDynamics tracks time pressure across rounds and advises on pacing.
// Private state: rounds observed per negotiation.
type TemporalDynamics struct {
	mu  sync.Mutex
	cfg TemporalConfig
	log *logrus.Logger

	roundsSeen map[string]int // negotiation id -> last observed round
}

// NewTemporalDynamics creates the module.
func NewTemporalDynamics(cfg *TemporalConfig, log *logrus.Logger) *TemporalDynamics {
	if log == nil {
		log = logrus.New()
	}
	resolved := DefaultTemporalConfig()
	if cfg != nil {
		if cfg.DiscountFactor > 0 && cfg.DiscountFactor <= 1 {
			resolved.DiscountFactor = cfg.DiscountFactor
		}
		if cfg.ReputationWeight >= 0 && cfg.ReputationWeight <= 1 {
			resolved.ReputationWeight = cfg.ReputationWeight
		}
		if cfg.RelationshipInvestmentThreshold > 0 && cfg.RelationshipInvestmentThreshold <= 1 {
			resolved.RelationshipInvestmentThreshold = cfg.RelationshipInvestmentThreshold
		}
	}
	return &TemporalDynamics{
		cfg:        resolved,
		log:        log,
		roundsSeen: make(map[string]int),
	}
}

// Name implements negotiation.AnalysisModule.
func (t *TemporalDynamics) Name() string {
	return negotiation.ModuleTemporalDynamics
}

// DeadlinePressure returns the fraction of the round budget consumed, 0-1.
func (t *TemporalDynamics) DeadlinePressure(round, maxRounds int) float64 {
	if maxRounds <= 0 {
		return 0
	}
	pressure := float64(round) / float64(maxRounds)
	if pressure > 1 {
		pressure = 1
	}
	return pressure
}

// FutureValueWeight discounts value realized n rounds from now.
func (t *TemporalDynamics) FutureValueWeight(roundsAhead int) float64 {
	if roundsAhead <= 0 {
		return 1
	}
	return math.Pow(t.cfg.DiscountFactor, float64(roundsAhead))
}

// ObservationContext renders deadline pressure and pacing guidance.
func (t *TemporalDynamics) ObservationContext(ctx context.Context, participant string, rc *negotiation.RoundContext) (string, error) {
	maxRounds, _ := rc.SharedData[negotiation.SharedKeyMaxRounds].(int)
	pressure := t.DeadlinePressure(rc.Round, maxRounds)

	t.mu.Lock()
	t.roundsSeen[rc.NegotiationID] = rc.Round
	t.mu.Unlock()

	remaining := maxRounds - rc.Round
	if remaining < 0 {
		remaining = 0
	}

	var pacing string
	switch {
	case pressure < 0.33:
		pacing = "Early phase: invest in information exchange and relationship building."
	case pressure < t.cfg.RelationshipInvestmentThreshold:
		pacing = "Mid phase: begin trading concessions; anchor on priority terms."
	default:
		pacing = "Late phase: converge now; each remaining round sharply discounts the achievable outcome."
	}

	return fmt.Sprintf(
		"[TEMPORAL DYNAMICS]\nRound %d, %d remaining (deadline pressure %.2f, next-round value weight %.2f, reputation weight %.2f).\n%s",
		rc.Round, remaining, pressure, t.FutureValueWeight(1), t.cfg.ReputationWeight, pacing,
	), nil
}
