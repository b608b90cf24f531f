// Package swarm implements iterative weighted-voting consensus across
// specialized sub-agent recommendations. Aggregation follows the weighted
// tally L* = argmax Σcᵢ·1[aᵢ = L] with bounded revision rounds.
package swarm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/observability"
)

// Specialization identifies a sub-agent's perspective.
type Specialization string

const (
	SpecAnalyst             Specialization = "analyst"
	SpecDiplomat            Specialization = "diplomat"
	SpecCompetitor          Specialization = "competitor"
	SpecRiskAssessor        Specialization = "risk_assessor"
	SpecRelationshipBuilder Specialization = "relationship_builder"
)

// Recommendation is a single sub-agent's vote: a discrete choice plus a
// confidence weight.
type Recommendation struct {
	AgentID        string         `json:"agent_id"`
	Specialization Specialization `json:"specialization"`
	Choice         string         `json:"choice"`
	Confidence     float64        `json:"confidence"` // 0-1
	Reasoning      string         `json:"reasoning,omitempty"`
}

// Config configures the consensus procedure.
type Config struct {
	// ConsensusThreshold is the minimum weighted agreement fraction for an
	// early decision (0-1].
	ConsensusThreshold float64 `json:"consensus_threshold" yaml:"consensus_threshold"`
	// MaxIterations bounds the revision rounds.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// RevisionDamping scales a reviser's confidence when it adopts the
	// current plurality choice.
	RevisionDamping float64 `json:"revision_damping" yaml:"revision_damping"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConsensusThreshold: 0.7,
		MaxIterations:      3,
		RevisionDamping:    0.9,
	}
}

// Decision is the outcome of a consensus run. A decision is always produced:
// if no iteration reaches the threshold, the final round's plurality choice
// is used and Converged is false.
type Decision struct {
	Choice     string             `json:"choice"`
	Agreement  float64            `json:"agreement"` // weighted fraction for Choice
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
	Tally      map[string]float64 `json:"tally"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Engine runs the consensus procedure.
type Engine struct {
	cfg Config
	log *logrus.Logger
}

// NewEngine creates a consensus engine. Zero config fields take defaults.
func NewEngine(cfg Config, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	defaults := DefaultConfig()
	if cfg.ConsensusThreshold <= 0 || cfg.ConsensusThreshold > 1 {
		cfg.ConsensusThreshold = defaults.ConsensusThreshold
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.RevisionDamping <= 0 || cfg.RevisionDamping > 1 {
		cfg.RevisionDamping = defaults.RevisionDamping
	}
	return &Engine{cfg: cfg, log: log}
}

// BuildConsensus iterates up to MaxIterations voting rounds. Each round the
// weighted tally is computed; once the plurality choice holds at least
// ConsensusThreshold of the total weight the decision is made. Between
// rounds, dissenting sub-agents whose confidence is below the mean confidence
// of the plurality supporters revise toward the plurality choice with damped
// confidence. The input slice is not mutated.
func (e *Engine) BuildConsensus(ctx context.Context, recommendations []*Recommendation) (*Decision, error) {
	if len(recommendations) == 0 {
		return nil, fmt.Errorf("no recommendations to aggregate")
	}

	working := make([]*Recommendation, len(recommendations))
	for i, rec := range recommendations {
		clone := *rec
		working[i] = &clone
	}

	var decision *Decision
	for iteration := 1; iteration <= e.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tally, total := weightedTally(working)
		choice, weight := pluralityChoice(tally)
		agreement := 0.0
		if total > 0 {
			agreement = weight / total
		}

		decision = &Decision{
			Choice:     choice,
			Agreement:  agreement,
			Iterations: iteration,
			Tally:      tally,
			Timestamp:  time.Now(),
		}

		if agreement >= e.cfg.ConsensusThreshold {
			decision.Converged = true
			break
		}

		e.revise(working, choice)
	}

	observability.ConsensusIterations.Observe(float64(decision.Iterations))
	e.log.WithFields(logrus.Fields{
		"choice":     decision.Choice,
		"agreement":  decision.Agreement,
		"iterations": decision.Iterations,
		"converged":  decision.Converged,
	}).Debug("Swarm consensus decided")

	return decision, nil
}

// revise moves weak dissenters toward the current plurality. A sub-agent
// revises when its confidence is below the mean confidence of the plurality
// supporters; its confidence is damped so repeated revision loses influence.
func (e *Engine) revise(recs []*Recommendation, plurality string) {
	supporterMean := 0.0
	supporters := 0
	for _, rec := range recs {
		if rec.Choice == plurality {
			supporterMean += rec.Confidence
			supporters++
		}
	}
	if supporters == 0 {
		return
	}
	supporterMean /= float64(supporters)

	for _, rec := range recs {
		if rec.Choice != plurality && rec.Confidence < supporterMean {
			rec.Choice = plurality
			rec.Confidence *= e.cfg.RevisionDamping
		}
	}
}

// weightedTally sums confidence per choice.
func weightedTally(recs []*Recommendation) (map[string]float64, float64) {
	tally := make(map[string]float64, len(recs))
	total := 0.0
	for _, rec := range recs {
		confidence := rec.Confidence
		if confidence < 0 {
			confidence = 0
		}
		tally[rec.Choice] += confidence
		total += confidence
	}
	return tally, total
}

// pluralityChoice returns the highest-weighted choice; ties break
// alphabetically for determinism.
func pluralityChoice(tally map[string]float64) (string, float64) {
	choices := make([]string, 0, len(tally))
	for choice := range tally {
		choices = append(choices, choice)
	}
	sort.Strings(choices)

	best := ""
	bestWeight := -1.0
	for _, choice := range choices {
		if tally[choice] > bestWeight {
			best = choice
			bestWeight = tally[choice]
		}
	}
	return best, bestWeight
}
