// Package quality scores one parsed extraction on five independent signals.
// Unlike the gates it never fails an extraction outright; its combined score
// feeds the escalation decision.
package quality

import (
	"strings"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/model"
)

// relMentions is the trivial link type; connectivity rewards finding
// anything structurally richer.
const relMentions = "MENTIONS"

// Scorer computes the weighted-signal quality score for extractions.
type Scorer struct {
	cfg config.QualityConfig
}

// NewScorer creates a Scorer with the given config.
func NewScorer(cfg config.QualityConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score evaluates one extraction against its source text. Each signal is
// normalized to [0,1] by dividing by its configured target and clipping.
func (s *Scorer) Score(ex *model.Extraction, sourceText string) model.QualityBreakdown {
	b := model.QualityBreakdown{
		Density:      s.scoreDensity(ex, sourceText),
		Evidence:     s.scoreEvidence(ex),
		Confidence:   s.scoreConfidence(ex),
		Connectivity: s.scoreConnectivity(ex),
		Tech:         scoreTech(ex),
	}

	b.Combined = s.cfg.DensityWeight*b.Density +
		s.cfg.EvidenceWeight*b.Evidence +
		s.cfg.ConfidenceWeight*b.Confidence +
		s.cfg.ConnectivityWeight*b.Connectivity +
		s.cfg.TechWeight*b.Tech

	return b
}

// scoreDensity measures entities per 1,000 source characters.
func (s *Scorer) scoreDensity(ex *model.Extraction, sourceText string) float64 {
	kChars := float64(len(sourceText)) / 1000.0
	if kChars == 0 {
		return 0
	}
	density := float64(len(ex.Entities)) / kChars
	return clip(density / s.cfg.EntityDensityTarget)
}

// scoreEvidence measures the fraction of asserted relations that carry at
// least one non-empty evidence snippet. No asserted relations means nothing
// is owed: full credit.
func (s *Scorer) scoreEvidence(ex *model.Extraction) float64 {
	asserted := ex.AssertedRelations()
	if len(asserted) == 0 {
		return clip(1.0 / s.cfg.EvidenceRateTarget)
	}

	withEvidence := 0
	for _, rel := range asserted {
		for _, ev := range rel.Evidence {
			if strings.TrimSpace(ev.Snippet) != "" {
				withEvidence++
				break
			}
		}
	}

	rate := float64(withEvidence) / float64(len(asserted))
	return clip(rate / s.cfg.EvidenceRateTarget)
}

// scoreConfidence measures the mean confidence across all relations.
func (s *Scorer) scoreConfidence(ex *model.Extraction) float64 {
	if len(ex.Relations) == 0 {
		return 0
	}
	var sum float64
	for _, rel := range ex.Relations {
		sum += rel.Confidence
	}
	mean := sum / float64(len(ex.Relations))
	return clip(mean / s.cfg.MeanConfidenceTarget)
}

// scoreConnectivity measures structural (non-MENTIONS) relations per entity.
func (s *Scorer) scoreConnectivity(ex *model.Extraction) float64 {
	if len(ex.Entities) == 0 {
		return 0
	}
	structural := 0
	for _, rel := range ex.Relations {
		if !strings.EqualFold(rel.Rel, relMentions) {
			structural++
		}
	}
	ratio := float64(structural) / float64(len(ex.Entities))
	return clip(ratio / s.cfg.ConnectivityTarget)
}

func scoreTech(ex *model.Extraction) float64 {
	if len(ex.TechTerms) > 0 {
		return 1.0
	}
	return 0.5
}

func clip(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
