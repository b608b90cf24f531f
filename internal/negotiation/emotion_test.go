package negotiation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmotionLabelsCoverValenceTable(t *testing.T) {
	labels := EmotionLabels()
	assert.Len(t, labels, 10)
	for _, label := range labels {
		assert.True(t, IsEmotionLabel(label))
	}
	assert.False(t, IsEmotionLabel("smug"))
}

func TestValenceBaselineSigns(t *testing.T) {
	assert.Positive(t, ValenceBaseline("happy"))
	assert.Negative(t, ValenceBaseline("angry"))
	assert.Zero(t, ValenceBaseline(EmotionNeutral))
	assert.Zero(t, ValenceBaseline("unknown"))
}

func TestLexicalIntensity(t *testing.T) {
	assert.InDelta(t, 0.5, LexicalIntensity("the price is five hundred"), 1e-9)
	assert.InDelta(t, 0.7, LexicalIntensity("this is very unfair!"), 1e-9)

	// Saturates at 1.0 no matter how much emphasis piles up.
	assert.InDelta(t, 1.0, LexicalIntensity("absolutely totally completely utterly outrageous!!!"), 1e-9)
}

func TestCounterpartBilateral(t *testing.T) {
	rc := NewRoundContext("neg-1", []string{"buyer", "seller"}, PhaseOpening, 1)

	counterpart, ok := rc.Counterpart("buyer")
	assert.True(t, ok)
	assert.Equal(t, "seller", counterpart)

	_, ok = NewRoundContext("neg-2", []string{"solo"}, PhaseOpening, 1).Counterpart("solo")
	assert.False(t, ok)
}

func TestRoundContextActivation(t *testing.T) {
	rc := NewRoundContext("neg-1", []string{"buyer", "seller"}, PhaseOpening, 1)
	rc.Activate("buyer", "social_intelligence")

	assert.True(t, rc.IsActive("buyer", "social_intelligence"))
	assert.False(t, rc.IsActive("seller", "social_intelligence"))
	assert.False(t, rc.IsActive("buyer", "cultural_awareness"))
}
