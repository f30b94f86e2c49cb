// Package sentiment scores text polarity with the VADER lexicon.
package sentiment

import (
	"strings"

	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
)

// Scores holds the detailed polarity breakdown for one text. Negative,
// Neutral, and Positive are proportions summing to ~1.0; Compound is the
// normalized overall polarity in [-1.0, 1.0].
type Scores struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Analyzer computes sentiment scores from a fixed lexicon and rule set. It is
// deterministic, performs no I/O, and is safe for concurrent use.
type Analyzer struct{}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the compound polarity of text, bounded to [-1.0, 1.0].
// Empty text scores 0.0.
func (a *Analyzer) Analyze(text string) float64 {
	return a.AnalyzeWithDetails(text).Compound
}

// AnalyzeWithDetails returns the full polarity breakdown. Empty text yields
// the neutral result {neg: 0, neu: 1, pos: 0, compound: 0}.
func (a *Analyzer) AnalyzeWithDetails(text string) Scores {
	if strings.TrimSpace(text) == "" {
		return Scores{Neutral: 1.0}
	}

	parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
	result := sentitext.PolarityScore(parsed)

	return Scores{
		Negative: result.Negative,
		Neutral:  result.Neutral,
		Positive: result.Positive,
		Compound: clamp(result.Compound, -1.0, 1.0),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
