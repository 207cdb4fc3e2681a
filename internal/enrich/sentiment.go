package enrich

import (
	"strings"

	"github.com/jonreiter/govader"
	"github.com/rs/zerolog/log"

	"placepulse/internal/domain"
)

// Thresholds map a compound score to a sentiment label.
type Thresholds struct {
	Positive float64 // compound >= Positive -> "positive"
	Negative float64 // compound <= Negative -> "negative"
}

func DefaultThresholds() Thresholds {
	return Thresholds{Positive: 0.05, Negative: -0.05}
}

// Analyzer scores review text with a lexicon/rule-based model. It performs
// no network calls and needs no training data.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
	th    Thresholds
}

func NewAnalyzer(th Thresholds) *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer(), th: th}
}

// neutralResult is the fixed result for empty input and scorer failures.
func neutralResult() domain.SentimentResult {
	return domain.SentimentResult{
		Label:    "neutral",
		Compound: 0,
		Positive: 0,
		Neutral:  1,
		Negative: 0,
	}
}

// AnalyzeText scores one review. Empty or whitespace-only input returns the
// fixed neutral result without invoking the scorers. A scorer panic degrades
// to the same neutral result; enrichment never aborts the calling batch.
func (a *Analyzer) AnalyzeText(text string) (res domain.SentimentResult) {
	if strings.TrimSpace(text) == "" {
		return neutralResult()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("sentiment scorer failed")
			res = neutralResult()
		}
	}()

	tokens := preprocess(text)
	if len(tokens) == 0 {
		// nothing scoreable survives preprocessing
		return neutralResult()
	}
	cleaned := strings.Join(tokens, " ")

	scores := a.vader.PolarityScores(cleaned)

	label := "neutral"
	switch {
	case scores.Compound >= a.th.Positive:
		label = "positive"
	case scores.Compound <= a.th.Negative:
		label = "negative"
	}

	return domain.SentimentResult{
		Label:        label,
		Compound:     scores.Compound,
		Positive:     scores.Positive,
		Neutral:      scores.Neutral,
		Negative:     scores.Negative,
		Subjectivity: subjectivity(tokens),
	}
}
