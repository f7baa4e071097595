// Package store persists quality runs, per-run metrics, and shadow-mode
// comparison records for offline analysis and reporting.
package store

import (
	"context"

	"github.com/graphdesk/newsgraph/internal/model"
)

// RunFilter specifies criteria for listing quality runs.
type RunFilter struct {
	DocID         string          `json:"doc_id,omitempty"`
	PipelineStage string          `json:"pipeline_stage,omitempty"`
	Status        model.RunStatus `json:"status,omitempty"`
	Decision      model.Decision  `json:"decision,omitempty"`
	Limit         int             `json:"limit,omitempty"`
	Offset        int             `json:"offset,omitempty"`
}

// StageSummary aggregates quality runs for one pipeline stage.
type StageSummary struct {
	PipelineStage    string  `json:"pipeline_stage"`
	Runs             int     `json:"runs"`
	Accepted         int     `json:"accepted"`
	Escalated        int     `json:"escalated"`
	Failed           int     `json:"failed"`
	MeanQualityScore float64 `json:"mean_quality_score"`
}

// Store defines the persistence interface for the extraction pipeline.
type Store interface {
	// Quality runs
	InsertRun(ctx context.Context, run model.QualityRun) error
	InsertMetrics(ctx context.Context, runID string, metrics []model.QualityMetric) error
	GetRun(ctx context.Context, runID string) (*model.QualityRun, error)
	GetRunMetrics(ctx context.Context, runID string) ([]model.QualityMetric, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.QualityRun, error)
	SummarizeRuns(ctx context.Context) ([]StageSummary, error)

	// Shadow comparisons
	UpsertComparison(ctx context.Context, rec model.ComparisonRecord) error
	ListComparisons(ctx context.Context, understudyModel string) ([]model.ComparisonRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
