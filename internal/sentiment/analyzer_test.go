package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_EmptyText(t *testing.T) {
	a := NewAnalyzer()

	assert.Equal(t, 0.0, a.Analyze(""))
	assert.Equal(t, 0.0, a.Analyze("   "))
}

func TestAnalyzeWithDetails_EmptyText(t *testing.T) {
	a := NewAnalyzer()

	scores := a.AnalyzeWithDetails("")

	assert.Equal(t, 0.0, scores.Negative)
	assert.Equal(t, 1.0, scores.Neutral)
	assert.Equal(t, 0.0, scores.Positive)
	assert.Equal(t, 0.0, scores.Compound)
}

func TestAnalyze_Polarity(t *testing.T) {
	a := NewAnalyzer()

	t.Run("positive text", func(t *testing.T) {
		score := a.Analyze("I love this amazing wonderful beach, it was great!")
		assert.Greater(t, score, 0.0)
	})

	t.Run("negative text", func(t *testing.T) {
		score := a.Analyze("I hate this terrible awful place, it was horrible")
		assert.Less(t, score, 0.0)
	})
}

func TestAnalyze_Bounds(t *testing.T) {
	a := NewAnalyzer()

	texts := []string{
		"the parking lot is across the street",
		"best best best best amazing amazing amazing!!!",
		"worst worst worst horrible horrible horrible!!!",
		"hiked Diamond Head this morning, incredible views",
		"overpriced and crowded, would not go back",
	}

	for _, text := range texts {
		score := a.Analyze(text)
		assert.GreaterOrEqual(t, score, -1.0, "text: %s", text)
		assert.LessOrEqual(t, score, 1.0, "text: %s", text)
	}
}

func TestAnalyzeWithDetails_ProportionsSum(t *testing.T) {
	a := NewAnalyzer()

	scores := a.AnalyzeWithDetails("the food was great but the wait was awful")

	sum := scores.Negative + scores.Neutral + scores.Positive
	require.InDelta(t, 1.0, sum, 0.02)
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := NewAnalyzer()

	text := "loved the sunset at the beach"
	first := a.AnalyzeWithDetails(text)
	second := a.AnalyzeWithDetails(text)

	assert.Equal(t, first, second)
}
