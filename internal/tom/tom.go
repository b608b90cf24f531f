// Package tom implements recursive, depth-bounded theory-of-mind inference:
// belief and intention modeling plus emotion detection, delegating leaf
// inferences to the text-generation oracle. Recursion is an explicit
// iterative loop with a depth counter, never the language call stack.
package tom

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/llm"
	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/observability"
)

// Config configures the inference engine.
type Config struct {
	// MaxRecursionDepth bounds nested inference; 0 means literal statements
	// only.
	MaxRecursionDepth int `json:"max_recursion_depth" yaml:"max_recursion_depth"`
	// EmotionSensitivity scales detected emotional intensity.
	EmotionSensitivity float64 `json:"emotion_sensitivity" yaml:"emotion_sensitivity"`
	// EmpathyLevel conditions generated empathic responses.
	EmpathyLevel float64 `json:"empathy_level" yaml:"empathy_level"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxRecursionDepth:  3,
		EmotionSensitivity: 0.7,
		EmpathyLevel:       0.8,
	}
}

// Engine performs theory-of-mind inference over negotiation statements.
type Engine struct {
	oracle llm.Oracle
	cfg    Config
	log    *logrus.Logger
}

// NewEngine creates an inference engine. Out-of-range config values fall back
// to defaults.
func NewEngine(oracle llm.Oracle, cfg Config, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	defaults := DefaultConfig()
	if cfg.MaxRecursionDepth < 0 {
		cfg.MaxRecursionDepth = defaults.MaxRecursionDepth
	}
	if cfg.EmotionSensitivity <= 0 || cfg.EmotionSensitivity > 1 {
		cfg.EmotionSensitivity = defaults.EmotionSensitivity
	}
	if cfg.EmpathyLevel <= 0 || cfg.EmpathyLevel > 1 {
		cfg.EmpathyLevel = defaults.EmpathyLevel
	}
	return &Engine{oracle: oracle, cfg: cfg, log: log}
}

// DetectEmotion classifies the primary emotion in a statement with one oracle
// call. A label outside the enumerated set means no emotion is detected
// rather than a guess.
func (e *Engine) DetectEmotion(ctx context.Context, statement, participant string, round int) (*negotiation.EmotionalState, error) {
	observability.OracleCallsTotal.WithLabelValues("theory_of_mind").Inc()
	prompt := fmt.Sprintf("Classify the primary emotion expressed by %s in this negotiation statement:\n%q", participant, statement)
	label, err := llm.Classify(ctx, e.oracle, prompt, negotiation.EmotionLabels())
	if err != nil {
		return nil, fmt.Errorf("emotion classification: %w", err)
	}
	if label == llm.Unclassified {
		observability.OracleFallbacksTotal.WithLabelValues("theory_of_mind").Inc()
		return nil, nil
	}

	intensity := negotiation.LexicalIntensity(statement) * e.cfg.EmotionSensitivity
	if intensity > 1.0 {
		intensity = 1.0
	}
	return &negotiation.EmotionalState{
		Participant:    participant,
		PrimaryEmotion: label,
		Intensity:      intensity,
		Valence:        negotiation.ValenceBaseline(label) * intensity,
		Context:        []string{statement},
		Round:          round,
	}, nil
}

// InferBelief infers what holder believes about about, nesting one level of
// "X believes that ..." per recursion depth. Exactly one oracle call is made
// per level. If the oracle fails mid-chain, the deepest successfully produced
// inference is returned (best-effort truncation, not a hard failure).
func (e *Engine) InferBelief(ctx context.Context, holder, about, statement string) (*negotiation.BeliefNode, error) {
	return e.inferChain(ctx, holder, about, statement, "believes")
}

// PredictIntention predicts what participant intends next, with the same
// depth-bounded nesting as InferBelief.
func (e *Engine) PredictIntention(ctx context.Context, participant, statement string) (*negotiation.BeliefNode, error) {
	return e.inferChain(ctx, participant, participant, statement, "intends")
}

// inferChain is the shared iterative inference loop. Depth 0 reflects the
// literal statement; level d wraps the level d-1 output before querying the
// oracle again.
func (e *Engine) inferChain(ctx context.Context, holder, about, statement, verb string) (*negotiation.BeliefNode, error) {
	node := &negotiation.BeliefNode{
		Holder:  holder,
		About:   about,
		Content: statement,
		Depth:   0,
	}

	for depth := 1; depth <= e.cfg.MaxRecursionDepth; depth++ {
		prompt := fmt.Sprintf(
			"In a negotiation, %s said or implied: %q\nState in one sentence what %s %s about %s at nesting level %d.",
			about, node.Content, holder, verb, about, depth,
		)
		observability.OracleCallsTotal.WithLabelValues("theory_of_mind").Inc()
		content, err := e.oracle.Complete(ctx, prompt)
		if err != nil {
			// Truncate: the deepest inference produced so far stands.
			e.log.WithError(err).WithFields(logrus.Fields{
				"holder": holder,
				"depth":  depth,
			}).Warn("Inference chain truncated")
			observability.OracleFallbacksTotal.WithLabelValues("theory_of_mind").Inc()
			return node, nil
		}
		node = &negotiation.BeliefNode{
			Holder:  holder,
			About:   about,
			Content: content,
			Depth:   depth,
		}
	}

	return node, nil
}

// GenerateEmpathicResponse produces a response acknowledging the detected
// emotion. Single oracle call, no retries beyond the oracle's own contract.
func (e *Engine) GenerateEmpathicResponse(ctx context.Context, emotion *negotiation.EmotionalState) (string, error) {
	if emotion == nil {
		return "", fmt.Errorf("no emotional state to respond to")
	}
	observability.OracleCallsTotal.WithLabelValues("theory_of_mind").Inc()
	prompt := fmt.Sprintf(
		"%s appears %s (intensity %.1f). Write a brief empathic negotiation response (empathy level %.1f) that acknowledges the feeling without conceding substance.",
		emotion.Participant, emotion.PrimaryEmotion, emotion.Intensity, e.cfg.EmpathyLevel,
	)
	return e.oracle.Complete(ctx, prompt)
}
