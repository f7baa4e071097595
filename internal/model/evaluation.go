package model

import "time"

// Decision is the terminal outcome of the escalation engine for one document.
type Decision string

const (
	DecisionAccept   Decision = "accept"
	DecisionEscalate Decision = "escalate"
)

// GateResult is the immutable outcome of one gate over one extraction.
type GateResult struct {
	Name        string  `json:"name"`
	Passed      bool    `json:"passed"`
	MetricValue float64 `json:"metric_value"`
	Details     string  `json:"details,omitempty"`
}

// GateReport aggregates all gate results for one extraction.
// OverallPassed is the AND of the gates actually run.
type GateReport struct {
	OverallPassed bool         `json:"overall_passed"`
	Gates         []GateResult `json:"gates"`
}

// FailedGateNames returns the names of failing gates in run order.
func (r GateReport) FailedGateNames() []string {
	var names []string
	for _, g := range r.Gates {
		if !g.Passed {
			names = append(names, g.Name)
		}
	}
	return names
}

// QualityBreakdown holds the five independently normalized quality signals
// and their weighted combination.
type QualityBreakdown struct {
	Density      float64 `json:"density_score"`
	Evidence     float64 `json:"evidence_score"`
	Confidence   float64 `json:"confidence_score"`
	Connectivity float64 `json:"connectivity_score"`
	Tech         float64 `json:"tech_score"`
	Combined     float64 `json:"combined_score"`
}

// QualityEvaluation is produced once per extraction and never mutated.
type QualityEvaluation struct {
	DocID          string           `json:"doc_id"`
	Gates          GateReport       `json:"gates"`
	Quality        QualityBreakdown `json:"quality"`
	Escalate       bool             `json:"escalate"`
	DecisionReason string           `json:"decision_reason"`
}

// Decision maps the Escalate flag to its Decision value.
func (e QualityEvaluation) Decision() Decision {
	if e.Escalate {
		return DecisionEscalate
	}
	return DecisionAccept
}

// RunStatus records how a per-document extraction run ended.
type RunStatus string

const (
	RunStatusCompleted    RunStatus = "completed"
	RunStatusAPIFailed    RunStatus = "api_failed"
	RunStatusParseFailed  RunStatus = "parse_failed"
	RunStatusSchemaFailed RunStatus = "schema_failed"
)

// QualityRun is one row of the quality_runs table.
type QualityRun struct {
	RunID         string    `json:"run_id"`
	DocID         string    `json:"doc_id"`
	PipelineStage string    `json:"pipeline_stage"`
	Model         string    `json:"model"`
	Provider      string    `json:"provider,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	DurationMs    int64     `json:"duration_ms,omitempty"`
	Status        RunStatus `json:"status"`
	Decision      Decision  `json:"decision,omitempty"`
	QualityScore  *float64  `json:"quality_score,omitempty"`
	InputChars    int       `json:"input_chars,omitempty"`
}

// QualityMetric is one row of the quality_metrics table: a single gate or
// score signal from a run, shaped for SQL aggregation.
type QualityMetric struct {
	RunID          string   `json:"run_id"`
	MetricName     string   `json:"metric_name"`
	MetricValue    float64  `json:"metric_value"`
	Passed         bool     `json:"passed"`
	Severity       int      `json:"severity"`
	ThresholdValue *float64 `json:"threshold_value,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}
