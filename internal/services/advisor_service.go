package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/cache"
	"dev.accord.negotiation/internal/llm"
	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/strategy"
	"dev.accord.negotiation/internal/tom"
)

// StatementAnalysis is the full theory-of-mind read of one statement.
type StatementAnalysis struct {
	Participant      string                      `json:"participant"`
	Emotion          *negotiation.EmotionalState `json:"emotion,omitempty"`
	Belief           *negotiation.BeliefNode     `json:"belief,omitempty"`
	Intention        *negotiation.BeliefNode     `json:"intention,omitempty"`
	EmpathicResponse string                      `json:"empathic_response,omitempty"`
}

// EvolveRequest parameterizes one strategy-evolution run. The fitness episode
// simulates a bilateral concession schedule against a stubborn opponent.
type EvolveRequest struct {
	ReservationValue float64                  `json:"reservation_value" binding:"required"`
	TargetValue      float64                  `json:"target_value" binding:"required"`
	MaxRounds        int                      `json:"max_rounds"`
	Seed             int64                    `json:"seed"`
	Config           strategy.EvolutionConfig `json:"config"`
}

// EvolveResult reports the evolved strategy parameters.
type EvolveResult struct {
	BestParameters []float64 `json:"best_parameters"`
	BestFitness    float64   `json:"best_fitness"`
	Generations    int       `json:"generations"`
	Converged      bool      `json:"converged"`
}

// evolvedStrategyTTL keeps persisted parameters around long enough to span a
// full negotiation session.
const evolvedStrategyTTL = 24 * time.Hour

// AdvisorService fronts the theory-of-mind and strategy-evolution engines.
// Evolved parameters are persisted to Redis so later sessions can reuse them;
// persistence failures are soft.
type AdvisorService struct {
	tom   *tom.Engine
	redis *cache.RedisClient
	log   *logrus.Logger
}

// NewAdvisorService creates the service. The Redis client may be nil, in
// which case evolved parameters are not persisted.
func NewAdvisorService(oracle llm.Oracle, tomCfg tom.Config, redis *cache.RedisClient, log *logrus.Logger) *AdvisorService {
	if log == nil {
		log = logrus.New()
	}
	return &AdvisorService{
		tom:   tom.NewEngine(oracle, tomCfg, log),
		redis: redis,
		log:   log,
	}
}

// AnalyzeStatement runs emotion detection, belief inference, and intention
// prediction over one statement, plus an empathic response when an emotion
// was detected.
func (a *AdvisorService) AnalyzeStatement(ctx context.Context, participant, counterpart, statement string, round int) (*StatementAnalysis, error) {
	analysis := &StatementAnalysis{Participant: participant}

	emotion, err := a.tom.DetectEmotion(ctx, statement, participant, round)
	if err != nil {
		return nil, fmt.Errorf("detect emotion: %w", err)
	}
	analysis.Emotion = emotion

	belief, err := a.tom.InferBelief(ctx, participant, counterpart, statement)
	if err != nil {
		return nil, fmt.Errorf("infer belief: %w", err)
	}
	analysis.Belief = belief

	intention, err := a.tom.PredictIntention(ctx, participant, statement)
	if err != nil {
		return nil, fmt.Errorf("predict intention: %w", err)
	}
	analysis.Intention = intention

	if emotion != nil {
		response, err := a.tom.GenerateEmpathicResponse(ctx, emotion)
		if err != nil {
			a.log.WithError(err).Warn("Empathic response generation failed")
		} else {
			analysis.EmpathicResponse = response
		}
	}

	return analysis, nil
}

// EvolveStrategy runs the genetic engine against a simulated concession
// episode and persists the winning parameters under the given key.
func (a *AdvisorService) EvolveStrategy(ctx context.Context, key string, req EvolveRequest) (*EvolveResult, error) {
	if req.TargetValue <= req.ReservationValue {
		return nil, fmt.Errorf("target value must exceed reservation value")
	}
	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 10
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	engine := strategy.NewEvolutionEngine(req.Config, seed, a.log)
	fitness := episodeFitness(req.ReservationValue, req.TargetValue, maxRounds)

	if err := engine.Evolve(ctx, fitness); err != nil {
		return nil, fmt.Errorf("evolution run: %w", err)
	}

	result := &EvolveResult{
		BestParameters: engine.BestParameters(),
		BestFitness:    engine.BestFitness(),
		Generations:    engine.Generation(),
		Converged:      engine.Converged(),
	}

	if a.redis != nil && key != "" {
		cacheKey := "strategy:evolved:" + key
		if err := a.redis.Set(ctx, cacheKey, result, evolvedStrategyTTL); err != nil {
			a.log.WithError(err).WithField("key", cacheKey).Warn("Evolved strategy not persisted")
		}
	}

	return result, nil
}

// EvolvedStrategy loads previously persisted parameters for key.
func (a *AdvisorService) EvolvedStrategy(ctx context.Context, key string) (*EvolveResult, error) {
	if a.redis == nil {
		return nil, fmt.Errorf("strategy persistence disabled")
	}
	var result EvolveResult
	if err := a.redis.Get(ctx, "strategy:evolved:"+key, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// episodeFitness scores a genome by simulating a concession schedule. Genes:
// opening aggressiveness, concession decay, risk appetite, relationship
// weight, deadline sensitivity. The simulated opponent concedes linearly; the
// score is the achieved surplus over reservation, penalized for no-deal.
func episodeFitness(reservation, target float64, maxRounds int) strategy.FitnessFunc {
	band := target - reservation
	return func(ctx context.Context, genes []float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		opening := target + genes[0]*band*0.5
		decay := clamp01(genes[1])
		deadlineSensitivity := clamp01(genes[4])

		ask := opening
		for round := 1; round <= maxRounds; round++ {
			pressure := float64(round) / float64(maxRounds)
			// Opponent walks up linearly from reservation toward target.
			opponentBid := reservation + band*0.8*pressure

			if opponentBid >= ask {
				// Deal: surplus over reservation, discounted by how long it took.
				surplus := (opponentBid - reservation) / band
				return surplus * (1 - 0.3*pressure), nil
			}

			concession := band * 0.2 * math.Pow(decay, float64(round-1)) * (1 + deadlineSensitivity*pressure)
			ask -= concession
			if ask < reservation {
				ask = reservation
			}
		}

		// No deal inside the round budget.
		return -0.5, nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

