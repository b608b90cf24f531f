package modules

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/swarm"
)

// Recommendation choices produced by the collective-intelligence sub-agents.
const (
	ChoiceAccept  = "accept"
	ChoiceCounter = "counter"
	ChoiceHold    = "hold"
)

// CollectiveIntelligence aggregates the views of specialized sub-agents into
// one recommendation per round through the swarm-consensus engine. Sub-agent
// positions are deterministic functions of the round context, so the module
// itself carries no oracle dependency.
type CollectiveIntelligence struct {
	engine *swarm.Engine
	log    *logrus.Logger
}

// NewCollectiveIntelligence creates the module over a consensus engine.
func NewCollectiveIntelligence(cfg swarm.Config, log *logrus.Logger) *CollectiveIntelligence {
	if log == nil {
		log = logrus.New()
	}
	return &CollectiveIntelligence{
		engine: swarm.NewEngine(cfg, log),
		log:    log,
	}
}

// Name implements negotiation.AnalysisModule.
func (c *CollectiveIntelligence) Name() string {
	return negotiation.ModuleCollectiveIntelligence
}

// ObservationContext runs a consensus round over the sub-agent panel and
// renders the collective recommendation.
func (c *CollectiveIntelligence) ObservationContext(ctx context.Context, participant string, rc *negotiation.RoundContext) (string, error) {
	recommendations := c.panel(participant, rc)

	decision, err := c.engine.BuildConsensus(ctx, recommendations)
	if err != nil {
		return "", fmt.Errorf("consensus: %w", err)
	}

	qualifier := "converged"
	if !decision.Converged {
		qualifier = "plurality fallback"
	}
	return fmt.Sprintf(
		"[COLLECTIVE INTELLIGENCE]\nSub-agent consensus: %s (agreement %.2f, %d iteration(s), %s).",
		decision.Choice, decision.Agreement, decision.Iterations, qualifier,
	), nil
}

// panel derives each specialist's position from the round context. An offer
// on the table late in the session pulls toward acceptance; an early session
// with no offer pulls toward holding out.
func (c *CollectiveIntelligence) panel(participant string, rc *negotiation.RoundContext) []*swarm.Recommendation {
	_, hasOffer := rc.SharedData[negotiation.SharedKeyLastOffer]
	maxRounds, _ := rc.SharedData[negotiation.SharedKeyMaxRounds].(int)
	pressure := 0.0
	if maxRounds > 0 {
		pressure = float64(rc.Round) / float64(maxRounds)
	}

	analyst := &swarm.Recommendation{
		AgentID:        participant + ":analyst",
		Specialization: swarm.SpecAnalyst,
		Choice:         ChoiceCounter,
		Confidence:     0.7,
	}
	diplomat := &swarm.Recommendation{
		AgentID:        participant + ":diplomat",
		Specialization: swarm.SpecDiplomat,
		Choice:         ChoiceCounter,
		Confidence:     0.6,
	}
	competitor := &swarm.Recommendation{
		AgentID:        participant + ":competitor",
		Specialization: swarm.SpecCompetitor,
		Choice:         ChoiceHold,
		Confidence:     0.65,
	}
	riskAssessor := &swarm.Recommendation{
		AgentID:        participant + ":risk_assessor",
		Specialization: swarm.SpecRiskAssessor,
		Choice:         ChoiceHold,
		Confidence:     0.5,
	}
	relationship := &swarm.Recommendation{
		AgentID:        participant + ":relationship_builder",
		Specialization: swarm.SpecRelationshipBuilder,
		Choice:         ChoiceCounter,
		Confidence:     0.55,
	}

	if !hasOffer {
		analyst.Choice = ChoiceHold
		diplomat.Choice = ChoiceHold
		relationship.Choice = ChoiceHold
	} else if pressure > 0.7 {
		// Deadline pressure: the cautious specialists prefer locking in the
		// offer on the table.
		riskAssessor.Choice = ChoiceAccept
		riskAssessor.Confidence = 0.75
		diplomat.Choice = ChoiceAccept
		diplomat.Confidence = 0.7
		relationship.Choice = ChoiceAccept
	}

	return []*swarm.Recommendation{analyst, diplomat, competitor, riskAssessor, relationship}
}
