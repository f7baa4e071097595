// Package escalation combines the gate report and quality score into the
// terminal per-document decision: accept the extraction or escalate it to a
// costlier model.
package escalation

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/gates"
	"github.com/graphdesk/newsgraph/internal/model"
	"github.com/graphdesk/newsgraph/internal/quality"
)

// Engine runs gates, then quality scoring, and decides accept vs escalate.
type Engine struct {
	runner    *gates.Runner
	scorer    *quality.Scorer
	threshold float64
}

// NewEngine creates an Engine from the gate, quality, and escalation configs.
func NewEngine(gateCfg config.GatesConfig, qualityCfg config.QualityConfig, escCfg config.EscalationConfig) *Engine {
	return &Engine{
		runner:    gates.NewRunner(gateCfg),
		scorer:    quality.NewScorer(qualityCfg),
		threshold: escCfg.ScoreThreshold,
	}
}

// Evaluate produces the full quality evaluation for one extraction. It is a
// pure function of its inputs: identical inputs yield identical evaluations,
// so re-running after a persistence failure is free.
//
// A gate failure always escalates, regardless of the combined score. A
// confidently wrong extraction must not be accepted on the strength of its
// aggregate score.
func (e *Engine) Evaluate(ex *model.Extraction, sourceText string) model.QualityEvaluation {
	report := e.runner.Run(ex, sourceText)
	breakdown := e.scorer.Score(ex, sourceText)

	eval := model.QualityEvaluation{
		DocID:   ex.DocID,
		Gates:   report,
		Quality: breakdown,
	}

	switch {
	case !report.OverallPassed:
		eval.Escalate = true
		eval.DecisionReason = "gate_failed: " + strings.Join(report.FailedGateNames(), ",")
	case breakdown.Combined < e.threshold:
		eval.Escalate = true
		eval.DecisionReason = fmt.Sprintf("quality_low: score=%.2f", breakdown.Combined)
	default:
		eval.DecisionReason = fmt.Sprintf("accepted: score=%.2f", breakdown.Combined)
	}

	zap.L().Info("escalation: decision",
		zap.String("doc_id", ex.DocID),
		zap.String("decision", string(eval.Decision())),
		zap.String("reason", eval.DecisionReason),
		zap.Float64("combined_score", breakdown.Combined),
		zap.Bool("gates_passed", report.OverallPassed),
	)

	return eval
}
