package gates

import (
	"fmt"

	"github.com/graphdesk/newsgraph/internal/model"
)

// EvidenceFidelityGate verifies that asserted relations quote the source:
// each asserted relation passes if at least one of its evidence snippets
// appears verbatim (after normalization) in the source text. The gate passes
// when the match rate meets MatchRateMin.
type EvidenceFidelityGate struct {
	MatchRateMin float64
}

func (g *EvidenceFidelityGate) Name() string { return GateEvidenceFidelity }

func (g *EvidenceFidelityGate) Run(ex *model.Extraction, sourceText string) model.GateResult {
	asserted := ex.AssertedRelations()
	if len(asserted) == 0 {
		// Nothing to verify.
		return model.GateResult{Passed: true, MetricValue: 1.0, Details: "no asserted relations"}
	}

	matched := 0
	for _, rel := range asserted {
		if evidenceMatches(rel, sourceText) {
			matched++
		}
	}

	rate := float64(matched) / float64(len(asserted))
	return model.GateResult{
		Passed:      rate >= g.MatchRateMin,
		MetricValue: rate,
		Details:     fmt.Sprintf("%d/%d asserted relations backed by source text", matched, len(asserted)),
	}
}

func evidenceMatches(rel model.Relation, sourceText string) bool {
	for _, ev := range rel.Evidence {
		if containsNormalized(sourceText, ev.Snippet) {
			return true
		}
	}
	return false
}
