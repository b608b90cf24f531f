package modules

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/llm"
	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/observability"
)

// SocialConfig configures the social-intelligence module.
type SocialConfig struct {
	// ConsistencyTolerance is the relative difference above which two numeric
	// claims on the same topic are flagged as inconsistent.
	ConsistencyTolerance float64 `json:"consistency_tolerance" yaml:"consistency_tolerance"`
}

// DefaultSocialConfig returns the documented defaults.
func DefaultSocialConfig() SocialConfig {
	return SocialConfig{ConsistencyTolerance: 0.1}
}

// numericClaim captures a participant's last numeric claim on a topic.
type numericClaim struct {
	value float64
	round int
}

// claimPattern extracts the first number (optionally dollar-prefixed, with
// thousands separators) from a statement.
var claimPattern = regexp.MustCompile(`\$?\s?(\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?)`)

// topicKeywords map statement vocabulary to claim topics. The first keyword
// found wins; statements with no keyword file under "value".
var topicKeywords = []struct {
	keyword string
	topic   string
}{
	{"price", "price"},
	{"pay", "price"},
	{"budget", "price"},
	{"cost", "price"},
	{"deliver", "delivery"},
	{"quantity", "quantity"},
	{"units", "quantity"},
	{"deadline", "deadline"},
	{"days", "deadline"},
}

// SocialIntelligence detects emotional dynamics and numeric-claim
// inconsistencies. Private state: per participant, the last claimed value per
// topic with the round it was observed.
type SocialIntelligence struct {
	mu     sync.Mutex
	oracle llm.Oracle
	cfg    SocialConfig
	log    *logrus.Logger

	claims     map[string]map[string]numericClaim // participant -> topic -> claim
	emotions   map[string]*negotiation.EmotionalState
	deceptions []*negotiation.DeceptionIndicator
}

// NewSocialIntelligence creates the module.
func NewSocialIntelligence(oracle llm.Oracle, cfg *SocialConfig, log *logrus.Logger) *SocialIntelligence {
	if log == nil {
		log = logrus.New()
	}
	resolved := DefaultSocialConfig()
	if cfg != nil && cfg.ConsistencyTolerance > 0 {
		resolved = *cfg
	}
	return &SocialIntelligence{
		oracle:   oracle,
		cfg:      resolved,
		log:      log,
		claims:   make(map[string]map[string]numericClaim),
		emotions: make(map[string]*negotiation.EmotionalState),
	}
}

// Name implements negotiation.AnalysisModule.
func (s *SocialIntelligence) Name() string {
	return negotiation.ModuleSocialIntelligence
}

// DetectEmotion classifies the primary emotion in text with a single oracle
// call constrained to the enumerated label set. Intensity comes from lexical
// emphasis markers; valence is the label's signed baseline scaled by
// intensity. An unusable oracle label yields no emotion, never a guess.
func (s *SocialIntelligence) DetectEmotion(ctx context.Context, text, participant string, round int) (*negotiation.EmotionalState, error) {
	observability.OracleCallsTotal.WithLabelValues("social_intelligence").Inc()
	prompt := fmt.Sprintf("Classify the primary emotion expressed by %s:\n%q", participant, text)
	label, err := llm.Classify(ctx, s.oracle, prompt, negotiation.EmotionLabels())
	if err != nil {
		return nil, fmt.Errorf("emotion classification: %w", err)
	}
	if label == llm.Unclassified {
		observability.OracleFallbacksTotal.WithLabelValues("social_intelligence").Inc()
		return nil, nil
	}

	intensity := negotiation.LexicalIntensity(text)
	state := &negotiation.EmotionalState{
		Participant:    participant,
		PrimaryEmotion: label,
		Intensity:      intensity,
		Valence:        negotiation.ValenceBaseline(label) * intensity,
		Context:        []string{text},
		Round:          round,
	}

	s.mu.Lock()
	s.emotions[participant] = state
	s.mu.Unlock()
	return state, nil
}

// CheckConsistency parses a numeric claim from statement and compares it to
// the participant's prior claim on the same topic. The first claim on a topic
// never flags; a later claim differing beyond the relative tolerance produces
// a DeceptionIndicator referencing both rounds. The stored value is updated
// either way.
func (s *SocialIntelligence) CheckConsistency(participant, statement string, round int) *negotiation.DeceptionIndicator {
	value, topic, ok := parseClaim(statement)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	topics, exists := s.claims[participant]
	if !exists {
		topics = make(map[string]numericClaim)
		s.claims[participant] = topics
	}

	prior, hadPrior := topics[topic]
	topics[topic] = numericClaim{value: value, round: round}
	if !hadPrior {
		return nil
	}

	reference := prior.value
	if reference < 0 {
		reference = -reference
	}
	if reference == 0 {
		reference = 1
	}
	diff := value - prior.value
	if diff < 0 {
		diff = -diff
	}
	if diff/reference <= s.cfg.ConsistencyTolerance {
		return nil
	}

	indicator := &negotiation.DeceptionIndicator{
		Participant:   participant,
		IndicatorType: "numeric_inconsistency",
		Description: fmt.Sprintf("%s claimed %s %.2f in round %d but %.2f in round %d",
			participant, topic, prior.value, prior.round, value, round),
		Topic:        topic,
		PriorRound:   prior.round,
		CurrentRound: round,
		PriorValue:   prior.value,
		CurrentValue: value,
	}
	s.deceptions = append(s.deceptions, indicator)
	s.log.WithFields(logrus.Fields{
		"participant": participant,
		"topic":       topic,
	}).Debug("Deception indicator raised")
	return indicator
}

// ObservationContext analyzes the last round's statement and renders the
// social read for participant: the counterpart's detected emotion and any
// inconsistency flags raised this round. Older flags stay queryable through
// Indicators but are not repeated round after round.
func (s *SocialIntelligence) ObservationContext(ctx context.Context, participant string, rc *negotiation.RoundContext) (string, error) {
	statement, _ := rc.SharedData[negotiation.SharedKeyLastStatement].(string)
	actor, _ := rc.SharedData[negotiation.SharedKeyLastActor].(string)

	if statement != "" && actor != "" && actor != participant {
		if _, err := s.DetectEmotion(ctx, statement, actor, rc.Round); err != nil {
			return "", err
		}
		s.CheckConsistency(actor, statement, rc.Round)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("[SOCIAL INTELLIGENCE]\n")
	wrote := false
	for _, other := range rc.Participants {
		if other == participant {
			continue
		}
		if emotion, ok := s.emotions[other]; ok {
			fmt.Fprintf(&b, "%s appears %s (intensity %.1f, valence %+.1f).\n",
				other, emotion.PrimaryEmotion, emotion.Intensity, emotion.Valence)
			wrote = true
		}
		for _, indicator := range s.deceptions {
			if indicator.Participant == other && indicator.CurrentRound == rc.Round {
				fmt.Fprintf(&b, "Consistency warning: %s.\n", indicator.Description)
				wrote = true
			}
		}
	}
	if !wrote {
		return "", nil
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Indicators returns the deception indicators raised so far.
func (s *SocialIntelligence) Indicators() []*negotiation.DeceptionIndicator {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*negotiation.DeceptionIndicator, len(s.deceptions))
	copy(out, s.deceptions)
	return out
}

// parseClaim extracts the first numeric value and its topic from a statement.
func parseClaim(statement string) (float64, string, bool) {
	match := claimPattern.FindStringSubmatch(statement)
	if match == nil {
		return 0, "", false
	}
	raw := strings.ReplaceAll(match[1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, "", false
	}

	lower := strings.ToLower(statement)
	for _, entry := range topicKeywords {
		if strings.Contains(lower, entry.keyword) {
			return value, entry.topic, true
		}
	}
	return value, "value", true
}
