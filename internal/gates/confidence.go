package gates

import (
	"fmt"
	"strings"

	"github.com/graphdesk/newsgraph/internal/model"
)

// HighConfidenceBadEvidenceGate flags the most damaging failure mode: a
// relation marked asserted with high confidence whose evidence does not
// appear in the source text. Inferred and hypothesis relations are exempt;
// no evidence is expected of them.
type HighConfidenceBadEvidenceGate struct {
	ConfidenceMin float64
}

func (g *HighConfidenceBadEvidenceGate) Name() string { return GateHighConfidenceBadEvidence }

func (g *HighConfidenceBadEvidenceGate) Run(ex *model.Extraction, sourceText string) model.GateResult {
	var flagged []string
	for _, rel := range ex.Relations {
		if rel.Kind != model.KindAsserted || rel.Confidence < g.ConfidenceMin {
			continue
		}
		if !evidenceMatches(rel, sourceText) {
			flagged = append(flagged, fmt.Sprintf("%s -%s-> %s (conf %.2f)", rel.Source, rel.Rel, rel.Target, rel.Confidence))
		}
	}

	res := model.GateResult{
		Passed:      len(flagged) == 0,
		MetricValue: float64(len(flagged)),
	}
	if len(flagged) > 0 {
		res.Details = "unsupported high-confidence relations: " + strings.Join(flagged, "; ")
	}
	return res
}
