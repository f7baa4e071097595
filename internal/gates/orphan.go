package gates

import (
	"fmt"
	"strings"

	"github.com/graphdesk/newsgraph/internal/model"
)

// OrphanEndpointsGate checks that every relation endpoint names a declared
// entity. A relation pointing at an undeclared name cannot be attached to
// the graph and signals the extractor lost track of its own entity list.
type OrphanEndpointsGate struct{}

func (g *OrphanEndpointsGate) Name() string { return GateOrphanEndpoints }

func (g *OrphanEndpointsGate) Run(ex *model.Extraction, _ string) model.GateResult {
	names := make(map[string]bool, len(ex.Entities))
	for _, e := range ex.Entities {
		names[strings.ToLower(e.Name)] = true
	}

	var orphans []string
	for _, rel := range ex.Relations {
		if !names[strings.ToLower(rel.Source)] {
			orphans = append(orphans, fmt.Sprintf("source:%s", rel.Source))
		}
		if !names[strings.ToLower(rel.Target)] {
			orphans = append(orphans, fmt.Sprintf("target:%s", rel.Target))
		}
	}

	res := model.GateResult{
		Passed:      len(orphans) == 0,
		MetricValue: float64(len(orphans)),
	}
	if len(orphans) > 0 {
		res.Details = "orphan endpoints: " + strings.Join(orphans, ", ")
	}
	return res
}
