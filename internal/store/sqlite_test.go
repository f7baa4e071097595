package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphdesk/newsgraph/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleRun(runID, docID, stage string) model.QualityRun {
	score := 0.72
	return model.QualityRun{
		RunID:         runID,
		DocID:         docID,
		PipelineStage: stage,
		Model:         "claude-haiku-4-5-20251001",
		Provider:      "anthropic",
		StartedAt:     time.Date(2026, 8, 22, 7, 30, 0, 0, time.UTC),
		DurationMs:    1850,
		Status:        model.RunStatusCompleted,
		Decision:      model.DecisionAccept,
		QualityScore:  &score,
		InputChars:    4200,
	}
}

func TestInsertAndGetRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	want := sampleRun("run-1", "doc-1", "daily")
	require.NoError(t, st.InsertRun(ctx, want))

	got, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.DocID, got.DocID)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Decision, got.Decision)
	require.NotNil(t, got.QualityScore)
	assert.InDelta(t, 0.72, *got.QualityScore, 0.0001)
	assert.Equal(t, want.DurationMs, got.DurationMs)
	assert.Equal(t, want.InputChars, got.InputChars)
}

func TestGetRun_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestInsertRun_FailedRunWithoutScore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := model.QualityRun{
		RunID:         "run-fail",
		DocID:         "doc-2",
		PipelineStage: "daily",
		Model:         "claude-haiku-4-5-20251001",
		StartedAt:     time.Now().UTC(),
		Status:        model.RunStatusParseFailed,
	}
	require.NoError(t, st.InsertRun(ctx, run))

	got, err := st.GetRun(ctx, "run-fail")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusParseFailed, got.Status)
	assert.Nil(t, got.QualityScore)
	assert.Empty(t, got.Decision)
}

func TestInsertAndGetMetrics(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertRun(ctx, sampleRun("run-1", "doc-1", "daily")))

	threshold := 0.70
	metrics := []model.QualityMetric{
		{RunID: "run-1", MetricName: "gate_evidence_fidelity", MetricValue: 1.0, Passed: true, ThresholdValue: &threshold},
		{RunID: "run-1", MetricName: "gate_zero_value", MetricValue: 6, Passed: true},
		{RunID: "run-1", MetricName: "combined_score", MetricValue: 0.72, Passed: true, Notes: "accepted: score=0.72"},
	}
	require.NoError(t, st.InsertMetrics(ctx, "run-1", metrics))

	got, err := st.GetRunMetrics(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "gate_evidence_fidelity", got[0].MetricName)
	require.NotNil(t, got[0].ThresholdValue)
	assert.InDelta(t, 0.70, *got[0].ThresholdValue, 0.0001)
	assert.Equal(t, "accepted: score=0.72", got[2].Notes)
}

func TestInsertMetrics_EmptyIsNoop(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.InsertMetrics(context.Background(), "whatever", nil))
}

func TestListRuns_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	r1 := sampleRun("run-1", "doc-1", "daily")
	r2 := sampleRun("run-2", "doc-1", "escalation")
	r2.Decision = model.DecisionEscalate
	r3 := sampleRun("run-3", "doc-2", "daily")
	r3.Status = model.RunStatusAPIFailed
	r3.Decision = ""
	r3.QualityScore = nil
	for _, r := range []model.QualityRun{r1, r2, r3} {
		require.NoError(t, st.InsertRun(ctx, r))
	}

	byDoc, err := st.ListRuns(ctx, RunFilter{DocID: "doc-1"})
	require.NoError(t, err)
	assert.Len(t, byDoc, 2)

	byStage, err := st.ListRuns(ctx, RunFilter{PipelineStage: "escalation"})
	require.NoError(t, err)
	require.Len(t, byStage, 1)
	assert.Equal(t, "run-2", byStage[0].RunID)

	byStatus, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusAPIFailed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "run-3", byStatus[0].RunID)

	byDecision, err := st.ListRuns(ctx, RunFilter{Decision: model.DecisionEscalate})
	require.NoError(t, err)
	require.Len(t, byDecision, 1)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSummarizeRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	r1 := sampleRun("run-1", "doc-1", "daily")
	r2 := sampleRun("run-2", "doc-2", "daily")
	r2.Decision = model.DecisionEscalate
	r3 := sampleRun("run-3", "doc-3", "daily")
	r3.Status = model.RunStatusSchemaFailed
	r3.Decision = ""
	r3.QualityScore = nil
	r4 := sampleRun("run-4", "doc-2", "escalation")
	for _, r := range []model.QualityRun{r1, r2, r3, r4} {
		require.NoError(t, st.InsertRun(ctx, r))
	}

	summaries, err := st.SummarizeRuns(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Alphabetical: daily, escalation.
	daily := summaries[0]
	assert.Equal(t, "daily", daily.PipelineStage)
	assert.Equal(t, 3, daily.Runs)
	assert.Equal(t, 1, daily.Accepted)
	assert.Equal(t, 1, daily.Escalated)
	assert.Equal(t, 1, daily.Failed)

	esc := summaries[1]
	assert.Equal(t, "escalation", esc.PipelineStage)
	assert.Equal(t, 1, esc.Runs)
}

func TestUpsertComparison(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entity, relation := 88.0, 82.0
	rec := model.ComparisonRecord{
		DocID:              "doc-1",
		RunDate:            time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC),
		UnderstudyModel:    "understudy",
		SchemaValid:        true,
		EntityOverlapPct:   &entity,
		RelationOverlapPct: &relation,
		PrimaryMs:          1500,
		UnderstudyMs:       600,
	}
	require.NoError(t, st.UpsertComparison(ctx, rec))

	// Re-running the same doc replaces the row rather than duplicating it.
	entity2 := 95.0
	rec.EntityOverlapPct = &entity2
	require.NoError(t, st.UpsertComparison(ctx, rec))

	got, err := st.ListComparisons(ctx, "understudy")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].EntityOverlapPct)
	assert.InDelta(t, 95.0, *got[0].EntityOverlapPct, 0.0001)
	assert.Equal(t, int64(600), got[0].UnderstudyMs)
}

func TestListComparisons_FiltersByModel(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	recA := model.ComparisonRecord{DocID: "d1", RunDate: time.Now().UTC(), UnderstudyModel: "model-a", SchemaValid: false}
	recB := model.ComparisonRecord{DocID: "d1", RunDate: time.Now().UTC(), UnderstudyModel: "model-b", SchemaValid: true}
	require.NoError(t, st.UpsertComparison(ctx, recA))
	require.NoError(t, st.UpsertComparison(ctx, recB))

	got, err := st.ListComparisons(ctx, "model-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].SchemaValid)
	assert.Nil(t, got[0].EntityOverlapPct)
}
