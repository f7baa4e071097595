// Package gates implements post-extraction admission control: four
// independent binary checks run against one parsed extraction and its source
// text. Gates catch structurally valid but untrustworthy output: fabricated
// evidence, dangling relation endpoints, and empty shells.
package gates

import (
	"go.uber.org/zap"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/model"
)

// Gate names, used in quality_metrics rows and escalation reasons.
const (
	GateEvidenceFidelity          = "evidence_fidelity"
	GateOrphanEndpoints           = "orphan_endpoints"
	GateZeroValue                 = "zero_value"
	GateHighConfidenceBadEvidence = "high_confidence_bad_evidence"
)

// Gate is a single binary check over one extraction and its source text.
// Implementations must be pure: same inputs, same result.
type Gate interface {
	Name() string
	Run(ex *model.Extraction, sourceText string) model.GateResult
}

// Runner executes a fixed, ordered set of gates.
type Runner struct {
	gates []Gate
}

// NewRunner creates a Runner with the four standard gates. Adding a gate is
// a compile-time change here, not a registration.
func NewRunner(cfg config.GatesConfig) *Runner {
	return &Runner{
		gates: []Gate{
			&EvidenceFidelityGate{MatchRateMin: cfg.EvidenceMatchRateMin},
			&OrphanEndpointsGate{},
			&ZeroValueGate{MinChars: cfg.ZeroValueMinChars},
			&HighConfidenceBadEvidenceGate{ConfidenceMin: cfg.HighConfidenceMin},
		},
	}
}

// Run executes every gate and ANDs their outcomes.
func (r *Runner) Run(ex *model.Extraction, sourceText string) model.GateReport {
	report := model.GateReport{OverallPassed: true}
	for _, g := range r.gates {
		res := g.Run(ex, sourceText)
		res.Name = g.Name()
		report.Gates = append(report.Gates, res)
		if !res.Passed {
			report.OverallPassed = false
		}
	}

	if !report.OverallPassed {
		zap.L().Warn("gates: extraction failed",
			zap.String("doc_id", ex.DocID),
			zap.Strings("failed", report.FailedGateNames()),
		)
	}

	return report
}
