package modules

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/negotiation"
)

// UncertaintyConfig configures the uncertainty-management module. Confidence
// threshold and risk tolerance are independent dials: the first gates
// information gathering, the second shades the recommended posture. No
// coupling rule is applied between them.
type UncertaintyConfig struct {
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
	RiskTolerance       float64 `json:"risk_tolerance" yaml:"risk_tolerance"`
	// InformationGatheringBudget is the share of rounds worth spending on
	// questions rather than offers.
	InformationGatheringBudget float64 `json:"information_gathering_budget" yaml:"information_gathering_budget"`
}

// DefaultUncertaintyConfig returns the documented defaults.
func DefaultUncertaintyConfig() UncertaintyConfig {
	return UncertaintyConfig{
		ConfidenceThreshold:        0.7,
		RiskTolerance:              0.3,
		InformationGatheringBudget: 0.1,
	}
}

// UncertaintyManagement estimates how well each counterpart's position is
// understood. Private state: count of observed statements per participant,
// the evidence base for the confidence estimate.
type UncertaintyManagement struct {
	mu  sync.Mutex
	cfg UncertaintyConfig
	log *logrus.Logger

	observations map[string]int // participant -> observed statements
}

// NewUncertaintyManagement creates the module.
func NewUncertaintyManagement(cfg *UncertaintyConfig, log *logrus.Logger) *UncertaintyManagement {
	if log == nil {
		log = logrus.New()
	}
	resolved := DefaultUncertaintyConfig()
	if cfg != nil {
		if cfg.ConfidenceThreshold > 0 && cfg.ConfidenceThreshold <= 1 {
			resolved.ConfidenceThreshold = cfg.ConfidenceThreshold
		}
		if cfg.RiskTolerance > 0 && cfg.RiskTolerance <= 1 {
			resolved.RiskTolerance = cfg.RiskTolerance
		}
		if cfg.InformationGatheringBudget > 0 && cfg.InformationGatheringBudget <= 1 {
			resolved.InformationGatheringBudget = cfg.InformationGatheringBudget
		}
	}
	return &UncertaintyManagement{
		cfg:          resolved,
		log:          log,
		observations: make(map[string]int),
	}
}

// Name implements negotiation.AnalysisModule.
func (u *UncertaintyManagement) Name() string {
	return negotiation.ModuleUncertaintyManagement
}

// Confidence estimates understanding of a counterpart from the number of
// statements observed, saturating toward 1.
func (u *UncertaintyManagement) Confidence(participant string) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := u.observations[participant]
	return float64(n) / float64(n+3)
}

// ObservationContext renders confidence and risk guidance for participant.
func (u *UncertaintyManagement) ObservationContext(ctx context.Context, participant string, rc *negotiation.RoundContext) (string, error) {
	actor, _ := rc.SharedData[negotiation.SharedKeyLastActor].(string)
	if actor != "" && actor != participant {
		u.mu.Lock()
		u.observations[actor]++
		u.mu.Unlock()
	}

	counterpart, ok := rc.Counterpart(participant)
	if !ok {
		return "", nil
	}
	confidence := u.Confidence(counterpart)

	var informationNote string
	if confidence < u.cfg.ConfidenceThreshold {
		informationNote = fmt.Sprintf(
			"Understanding of %s's position is below threshold (%.2f < %.2f); ask clarifying questions before conceding (budget %.0f%% of rounds).",
			counterpart, confidence, u.cfg.ConfidenceThreshold, u.cfg.InformationGatheringBudget*100,
		)
	} else {
		informationNote = fmt.Sprintf("Understanding of %s's position is sufficient (%.2f).", counterpart, confidence)
	}

	var riskNote string
	if u.cfg.RiskTolerance < 0.5 {
		riskNote = "Risk posture: conservative; prefer certain moderate outcomes over gambles."
	} else {
		riskNote = "Risk posture: tolerant; ambitious anchors are acceptable."
	}

	return fmt.Sprintf("[UNCERTAINTY MANAGEMENT]\n%s\n%s", informationNote, riskNote), nil
}
