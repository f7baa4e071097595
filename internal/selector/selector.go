// Package selector implements pre-extraction admission control: from a day's
// candidate documents it picks the subset worth spending extraction budget
// on, honoring a base budget, a stretch ceiling, and per-feed fairness.
package selector

import (
	"sort"

	"go.uber.org/zap"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/model"
	"github.com/graphdesk/newsgraph/internal/scorer"
)

// BudgetSelector scores and selects candidate documents.
type BudgetSelector struct {
	scorer *scorer.DocScorer
	cfg    config.SelectorConfig
}

// New creates a BudgetSelector with the given config.
func New(cfg config.SelectorConfig) *BudgetSelector {
	return &BudgetSelector{
		scorer: scorer.NewDocScorer(cfg),
		cfg:    cfg,
	}
}

// Select returns the documents to send to extraction, descending by score.
// feedTiers and feedSignals map a document's Source to its trust metadata;
// unknown sources degrade to tier 3 / unknown signal rather than erroring.
func (s *BudgetSelector) Select(candidates []model.Document, feedTiers map[string]int, feedSignals map[string]model.SignalType) []model.ScoredDoc {
	if len(candidates) == 0 {
		return nil
	}

	// Score every candidate and drop those below the quality floor.
	var scored []model.ScoredDoc
	for _, doc := range candidates {
		sd := s.scorer.Score(doc, feedTiers[doc.Source], feedSignals[doc.Source])
		if sd.QualityScore >= s.cfg.MinQuality {
			scored = append(scored, sd)
		}
	}
	sortByScore(scored)

	// Everything fits: no selection needed.
	if len(scored) <= s.cfg.Budget {
		zap.L().Info("selector: all candidates fit budget",
			zap.Int("candidates", len(candidates)),
			zap.Int("qualified", len(scored)),
		)
		return scored
	}

	selected := make([]model.ScoredDoc, 0, s.cfg.StretchMax)
	picked := make(map[string]bool, s.cfg.StretchMax)

	// Fairness pass: each feed's top min_per_feed docs. Representation is a
	// preference, not a guarantee: if the representatives alone exceed the
	// stretch ceiling, keep only the top stretch_max of them by score.
	representatives := s.feedRepresentatives(scored)
	if len(representatives) > s.cfg.StretchMax {
		representatives = representatives[:s.cfg.StretchMax]
	}
	for _, sd := range representatives {
		selected = append(selected, sd)
		picked[sd.DocID] = true
	}

	// Fill pass: top up to the base budget with the highest-scoring
	// unselected docs.
	for _, sd := range scored {
		if len(selected) >= s.cfg.Budget {
			break
		}
		if !picked[sd.DocID] {
			selected = append(selected, sd)
			picked[sd.DocID] = true
		}
	}

	// Stretch pass: only once the budget is full, walk the remaining pool in
	// score order and admit docs at or above the stretch threshold. The pool
	// is score-sorted, so the first doc below threshold ends the scan.
	if len(selected) >= s.cfg.Budget {
		for _, sd := range scored {
			if len(selected) >= s.cfg.StretchMax {
				break
			}
			if picked[sd.DocID] {
				continue
			}
			if sd.QualityScore < s.cfg.StretchThreshold {
				break
			}
			selected = append(selected, sd)
			picked[sd.DocID] = true
		}
	}

	sortByScore(selected)

	zap.L().Info("selector: selection complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("qualified", len(scored)),
		zap.Int("selected", len(selected)),
		zap.Int("budget", s.cfg.Budget),
		zap.Int("stretch_max", s.cfg.StretchMax),
	)

	return selected
}

// feedRepresentatives returns the top min_per_feed docs of each feed, sorted
// descending by score across feeds. The input must already be score-sorted.
func (s *BudgetSelector) feedRepresentatives(scored []model.ScoredDoc) []model.ScoredDoc {
	if s.cfg.MinPerFeed <= 0 {
		return nil
	}

	perFeed := make(map[string]int)
	var reps []model.ScoredDoc
	for _, sd := range scored {
		if perFeed[sd.Source] < s.cfg.MinPerFeed {
			reps = append(reps, sd)
			perFeed[sd.Source]++
		}
	}
	sortByScore(reps)
	return reps
}

// sortByScore sorts descending by score, breaking ties by DocID so a given
// candidate set always selects deterministically.
func sortByScore(docs []model.ScoredDoc) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].QualityScore != docs[j].QualityScore {
			return docs[i].QualityScore > docs[j].QualityScore
		}
		return docs[i].DocID < docs[j].DocID
	})
}
