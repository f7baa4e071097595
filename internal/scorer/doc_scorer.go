// Package scorer implements pre-extraction document quality scoring.
// Scores decide which of the day's candidate articles are worth spending
// extraction budget on; they never see model output.
package scorer

import (
	"math"
	"strings"
	"time"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/model"
)

// signalScores maps a feed's signal type to its component score.
var signalScores = map[model.SignalType]float64{
	model.SignalPrimary:    1.0,
	model.SignalCommentary: 0.8,
	model.SignalCommunity:  0.6,
	model.SignalEcho:       0.4,
}

const unknownSignalScore = 0.5

// DocScorer scores candidate documents for extraction admission.
type DocScorer struct {
	cfg config.SelectorConfig
}

// NewDocScorer creates a DocScorer with the given config.
func NewDocScorer(cfg config.SelectorConfig) *DocScorer {
	return &DocScorer{cfg: cfg}
}

// Score computes the quality score for one candidate document.
// The result is always in [0,1]; malformed inputs (empty text, missing
// title or date) degrade to lower scores rather than erroring.
func (s *DocScorer) Score(doc model.Document, tier int, signal model.SignalType) model.ScoredDoc {
	words := countWords(doc.Text)

	components := map[string]float64{
		"word_count": s.scoreWordCount(words),
		"metadata":   scoreMetadata(doc.Title, doc.PublishedAt),
		"tier":       scoreTier(tier),
		"signal":     scoreSignal(signal),
	}

	total := s.cfg.WordCountWeight*components["word_count"] +
		s.cfg.MetadataWeight*components["metadata"] +
		s.cfg.TierWeight*components["tier"] +
		s.cfg.SignalWeight*components["signal"]

	return model.ScoredDoc{
		Document:       doc,
		QualityScore:   clamp01(total),
		ScoreBreakdown: components,
		WordCount:      words,
	}
}

// scoreWordCount rewards substantive articles without punishing long-form
// content: linear ramp 0→0.5 below the low threshold, 0.5→1.0 up to the
// ideal threshold, flat 1.0 to the high threshold, then a gentle logarithmic
// decay that never drops below 0.7.
func (s *DocScorer) scoreWordCount(words int) float64 {
	low := float64(s.cfg.WordCountLow)
	ideal := float64(s.cfg.WordCountIdeal)
	high := float64(s.cfg.WordCountHigh)
	w := float64(words)

	switch {
	case w <= 0:
		return 0
	case w < low:
		return 0.5 * (w / low)
	case w < ideal:
		return 0.5 + 0.5*(w-low)/(ideal-low)
	case w <= high:
		return 1.0
	default:
		decayed := 1.0 - 0.1*math.Log(w/high)
		return math.Max(decayed, 0.7)
	}
}

func scoreMetadata(title string, published time.Time) float64 {
	var score float64
	if strings.TrimSpace(title) != "" {
		score += 0.5
	}
	if !published.IsZero() {
		score += 0.5
	}
	return score
}

func scoreTier(tier int) float64 {
	switch tier {
	case 1:
		return 1.0
	case 2:
		return 0.6
	default:
		// Unknown tiers score as tier 3: admission control should not
		// reward unlabeled feeds.
		return 0.3
	}
}

func scoreSignal(signal model.SignalType) float64 {
	if v, ok := signalScores[signal]; ok {
		return v
	}
	return unknownSignalScore
}

func countWords(text string) int {
	return len(strings.Fields(text))
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
