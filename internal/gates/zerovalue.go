package gates

import (
	"fmt"

	"github.com/graphdesk/newsgraph/internal/model"
)

// ZeroValueGate guards against schema-valid-but-empty output: a substantial
// article should yield entities, and entities should yield relations. Texts
// shorter than MinChars are too thin to expect structure and skip the check.
type ZeroValueGate struct {
	MinChars int
}

func (g *ZeroValueGate) Name() string { return GateZeroValue }

func (g *ZeroValueGate) Run(ex *model.Extraction, sourceText string) model.GateResult {
	if len(sourceText) < g.MinChars {
		return model.GateResult{
			Passed:      true,
			MetricValue: 0,
			Details:     fmt.Sprintf("skipped: source text %d chars < %d", len(sourceText), g.MinChars),
		}
	}

	if len(ex.Entities) == 0 {
		return model.GateResult{
			Passed:      false,
			MetricValue: 0,
			Details:     "zero_entities",
		}
	}

	if len(ex.Relations) == 0 {
		details := "no_relations"
		if len(ex.Entities) > 3 {
			details = fmt.Sprintf("no_relations: %d entities but no relations", len(ex.Entities))
		}
		return model.GateResult{
			Passed:      false,
			MetricValue: float64(len(ex.Entities)),
			Details:     details,
		}
	}

	return model.GateResult{
		Passed:      true,
		MetricValue: float64(len(ex.Entities)),
	}
}
