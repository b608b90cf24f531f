package negotiation

import "strings"

// EmotionNeutral is the fallback label when classification yields nothing
// usable.
const EmotionNeutral = "neutral"

// emotionValence maps each recognized emotion label to its signed baseline
// valence. The effective valence of a detection is this baseline scaled by
// the measured intensity.
var emotionValence = map[string]float64{
	"happy":        0.8,
	"satisfied":    0.6,
	"hopeful":      0.5,
	"confident":    0.4,
	EmotionNeutral: 0.0,
	"confused":     -0.2,
	"anxious":      -0.4,
	"frustrated":   -0.6,
	"angry":        -0.8,
	"insulted":     -0.9,
}

// intensityMarkers are lexical emphasis/superlative cues. Each occurrence in
// a statement raises the detected intensity.
var intensityMarkers = []string{
	"very", "really", "extremely", "completely", "totally", "absolutely",
	"utterly", "deeply", "incredibly", "insulting", "outrageous", "never",
	"always", "worst", "best", "!",
}

// EmotionLabels returns the closed set of emotion labels the oracle may
// answer with. Anything outside this set is treated as unclassified.
func EmotionLabels() []string {
	labels := make([]string, 0, len(emotionValence))
	for label := range emotionValence {
		labels = append(labels, label)
	}
	return labels
}

// IsEmotionLabel reports whether label belongs to the enumerated set.
func IsEmotionLabel(label string) bool {
	_, ok := emotionValence[label]
	return ok
}

// ValenceBaseline returns the signed baseline for an emotion label, 0 for
// unknown labels.
func ValenceBaseline(label string) float64 {
	return emotionValence[label]
}

// LexicalIntensity scores the emphasis of a statement from marker counts.
// The base intensity is 0.5; each marker adds 0.1, capped at 1.0.
func LexicalIntensity(text string) float64 {
	lower := strings.ToLower(text)
	intensity := 0.5
	for _, marker := range intensityMarkers {
		intensity += 0.1 * float64(strings.Count(lower, marker))
	}
	if intensity > 1.0 {
		intensity = 1.0
	}
	return intensity
}
