package modules

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/negotiation"
)

// CulturalProfile is a static style descriptor for a culture. Profiles are
// catalogued at process start and never mutated.
type CulturalProfile struct {
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	Directness    float64 `json:"directness"`     // 0-1
	Formality     float64 `json:"formality"`      // 0-1
	RiskTolerance float64 `json:"risk_tolerance"` // 0-1
}

// DistanceFrom returns the Euclidean distance between two profiles across the
// three style dimensions. Symmetric; zero against itself.
func (p CulturalProfile) DistanceFrom(other CulturalProfile) float64 {
	dd := p.Directness - other.Directness
	df := p.Formality - other.Formality
	dr := p.RiskTolerance - other.RiskTolerance
	return math.Sqrt(dd*dd + df*df + dr*dr)
}

// DefaultCulture is assigned to participants with no explicit culture.
const DefaultCulture = "western_business"

// culturalProfiles is the immutable profile catalogue.
var culturalProfiles = map[string]CulturalProfile{
	"western_business": {
		Key:           "western_business",
		Name:          "Western Business (USA/UK)",
		Directness:    0.85,
		Formality:     0.45,
		RiskTolerance: 0.65,
	},
	"east_asian": {
		Key:           "east_asian",
		Name:          "East Asian (Japan/China)",
		Directness:    0.25,
		Formality:     0.90,
		RiskTolerance: 0.35,
	},
	"middle_eastern": {
		Key:           "middle_eastern",
		Name:          "Middle Eastern (Gulf)",
		Directness:    0.50,
		Formality:     0.75,
		RiskTolerance: 0.55,
	},
	"latin_american": {
		Key:           "latin_american",
		Name:          "Latin American",
		Directness:    0.60,
		Formality:     0.55,
		RiskTolerance: 0.60,
	},
	"northern_european": {
		Key:           "northern_european",
		Name:          "Northern European (Nordics/Germany)",
		Directness:    0.80,
		Formality:     0.70,
		RiskTolerance: 0.45,
	},
}

// LookupCulture resolves a catalogue key.
func LookupCulture(key string) (CulturalProfile, bool) {
	profile, ok := culturalProfiles[key]
	return profile, ok
}

// CultureKeys returns the catalogued keys, sorted.
func CultureKeys() []string {
	keys := make([]string, 0, len(culturalProfiles))
	for key := range culturalProfiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Distance tier thresholds for the qualitative guidance note.
const (
	distanceLowMax    = 0.3
	distanceMediumMax = 0.6
)

// directnessMarkers are blunt-phrasing cues; their density drives the lexical
// directness score of a statement.
var directnessMarkers = []string{
	"you are wrong", "you're wrong", "no.", "must", "immediately",
	"unacceptable", "you need to", "never", "demand", "final offer",
	"take it or leave it", "wrong",
}

// LexicalDirectness scores how blunt a statement reads, 0-1, from marker
// counts. Deterministic; no oracle involved.
func LexicalDirectness(statement string) float64 {
	lower := strings.ToLower(statement)
	score := 0.0
	for _, marker := range directnessMarkers {
		score += 0.25 * float64(strings.Count(lower, marker))
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// CulturalAwareness tracks participant culture assignments and mediates
// cross-cultural friction. Private state: participant -> assigned profile.
type CulturalAwareness struct {
	mu       sync.Mutex
	log      *logrus.Logger
	cultures map[string]CulturalProfile
}

// NewCulturalAwareness creates the module.
func NewCulturalAwareness(log *logrus.Logger) *CulturalAwareness {
	if log == nil {
		log = logrus.New()
	}
	return &CulturalAwareness{
		log:      log,
		cultures: make(map[string]CulturalProfile),
	}
}

// Name implements negotiation.AnalysisModule.
func (c *CulturalAwareness) Name() string {
	return negotiation.ModuleCulturalAwareness
}

// SetParticipantCulture assigns a catalogued culture to a participant. An
// unknown key is a no-op: the old assignment is retained.
func (c *CulturalAwareness) SetParticipantCulture(participant, cultureKey string) {
	profile, ok := LookupCulture(cultureKey)
	if !ok {
		c.log.WithFields(logrus.Fields{
			"participant": participant,
			"culture":     cultureKey,
		}).Warn("Unknown culture key, keeping previous assignment")
		return
	}
	c.mu.Lock()
	c.cultures[participant] = profile
	c.mu.Unlock()
}

// ParticipantCulture returns the participant's profile, defaulting when
// unset.
func (c *CulturalAwareness) ParticipantCulture(participant string) CulturalProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if profile, ok := c.cultures[participant]; ok {
		return profile
	}
	return culturalProfiles[DefaultCulture]
}

// DetectCulturalViolation checks whether the speaker's statement is too
// direct for the listener. The effective directness blends the speaker's
// profile directness with the statement's lexical directness; the listener's
// tolerance shrinks with formality. Returns a violation description and true
// when the tolerance is exceeded.
func (c *CulturalAwareness) DetectCulturalViolation(speaker, statement, listener string) (string, bool) {
	speakerProfile := c.ParticipantCulture(speaker)
	listenerProfile := c.ParticipantCulture(listener)

	effective := 0.5*speakerProfile.Directness + 0.5*LexicalDirectness(statement)
	tolerance := 1.0 - 0.6*listenerProfile.Formality

	if effective <= tolerance {
		return "", false
	}
	description := fmt.Sprintf(
		"%s's phrasing (directness %.2f) exceeds %s's tolerance (%.2f) given a %s communication style",
		speaker, effective, listener, tolerance, listenerProfile.Name,
	)
	return description, true
}

// ObservationContext renders the counterpart's culture and a qualitative
// guidance note tiered by cultural distance (low/medium/high at 0.3/0.6).
func (c *CulturalAwareness) ObservationContext(ctx context.Context, participant string, rc *negotiation.RoundContext) (string, error) {
	counterpart, ok := rc.Counterpart(participant)
	if !ok {
		return "", nil
	}

	own := c.ParticipantCulture(participant)
	theirs := c.ParticipantCulture(counterpart)
	distance := own.DistanceFrom(theirs)

	var guidance string
	switch {
	case distance <= distanceLowMax:
		guidance = "Styles are closely aligned; negotiate as you naturally would."
	case distance <= distanceMediumMax:
		guidance = "Moderate style gap; soften direct asks and confirm understanding."
	default:
		guidance = "Large style gap; prioritize relationship cues, avoid blunt refusals, and allow extra time."
	}

	return fmt.Sprintf(
		"[CULTURAL AWARENESS]\n%s negotiates in a %s style (cultural distance %.2f).\n%s",
		counterpart, theirs.Name, distance, guidance,
	), nil
}
