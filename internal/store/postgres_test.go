package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphdesk/newsgraph/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS quality_runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run := sampleRun("run-1", "doc-1", "daily")
	mock.ExpectExec(`INSERT INTO quality_runs`).
		WithArgs(run.RunID, run.DocID, run.PipelineStage, run.Model, pgxmock.AnyArg(),
			run.StartedAt.UTC(), run.DurationMs, string(run.Status), pgxmock.AnyArg(),
			run.QualityScore, run.InputChars).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.InsertRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	score := 0.72
	provider := "anthropic"
	decision := "accept"
	durationMs := int64(1850)
	inputChars := 4200
	started := time.Date(2026, 8, 22, 7, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM quality_runs WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"run_id", "doc_id", "pipeline_stage", "model", "provider",
			"started_at", "duration_ms", "status", "decision", "quality_score", "input_chars",
		}).AddRow("run-1", "doc-1", "daily", "claude-haiku-4-5-20251001", &provider,
			started, &durationMs, model.RunStatusCompleted, &decision, &score, &inputChars))

	got, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.DocID)
	assert.Equal(t, model.DecisionAccept, got.Decision)
	require.NotNil(t, got.QualityScore)
	assert.InDelta(t, 0.72, *got.QualityScore, 0.0001)
	assert.Equal(t, int64(1850), got.DurationMs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM quality_runs WHERE run_id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertMetrics(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	threshold := 0.70
	metrics := []model.QualityMetric{
		{RunID: "run-1", MetricName: "gate_evidence_fidelity", MetricValue: 1.0, Passed: true, ThresholdValue: &threshold},
		{RunID: "run-1", MetricName: "combined_score", MetricValue: 0.72, Passed: true, Severity: 1, Notes: "accepted: score=0.72"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO quality_metrics`).
		WithArgs("run-1", "gate_evidence_fidelity", 1.0, 1, 0, &threshold, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO quality_metrics`).
		WithArgs("run-1", "combined_score", 0.72, 1, 1, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	require.NoError(t, s.InsertMetrics(context.Background(), "run-1", metrics))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertMetrics_EmptyIsNoop(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	require.NoError(t, s.InsertMetrics(context.Background(), "run-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_AppliesFilters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	score := 0.72
	provider := "anthropic"
	decision := "escalate"
	durationMs := int64(900)
	inputChars := 3100

	mock.ExpectQuery(`SELECT .+ FROM quality_runs WHERE 1=1 AND doc_id = \$1 AND status = \$2 ORDER BY started_at DESC LIMIT \$3`).
		WithArgs("doc-1", "completed", 10).
		WillReturnRows(pgxmock.NewRows([]string{
			"run_id", "doc_id", "pipeline_stage", "model", "provider",
			"started_at", "duration_ms", "status", "decision", "quality_score", "input_chars",
		}).AddRow("run-2", "doc-1", "daily", "claude-haiku-4-5-20251001", &provider,
			time.Now().UTC(), &durationMs, model.RunStatusCompleted, &decision, &score, &inputChars))

	runs, err := s.ListRuns(context.Background(), RunFilter{
		DocID:  "doc-1",
		Status: model.RunStatusCompleted,
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, model.DecisionEscalate, runs[0].Decision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SummarizeRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT pipeline_stage`).
		WillReturnRows(pgxmock.NewRows([]string{
			"pipeline_stage", "runs", "accepted", "escalated", "failed", "mean_quality_score",
		}).
			AddRow("daily", 20, 14, 4, 2, 0.68).
			AddRow("escalation", 4, 3, 1, 0, 0.74))

	summaries, err := s.SummarizeRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "daily", summaries[0].PipelineStage)
	assert.Equal(t, 20, summaries[0].Runs)
	assert.Equal(t, 2, summaries[0].Failed)
	assert.InDelta(t, 0.74, summaries[1].MeanQualityScore, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertComparison(t *testing.T) {
	s, mock := newMockPostgresStore(t)

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

	mock.ExpectExec(`INSERT INTO extraction_comparison .+ ON CONFLICT`).
		WithArgs(rec.DocID, rec.RunDate.UTC(), rec.UnderstudyModel, 1,
			rec.EntityOverlapPct, rec.RelationOverlapPct, rec.PrimaryMs, rec.UnderstudyMs).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.UpsertComparison(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListComparisons(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	entity, relation := 91.0, 84.0
	mock.ExpectQuery(`SELECT .+ FROM extraction_comparison WHERE understudy_model = \$1`).
		WithArgs("understudy").
		WillReturnRows(pgxmock.NewRows([]string{
			"doc_id", "run_date", "understudy_model", "schema_valid",
			"entity_overlap_pct", "relation_overlap_pct", "primary_ms", "understudy_ms",
		}).
			AddRow("doc-1", time.Now().UTC(), "understudy", 1, &entity, &relation, int64(1500), int64(600)).
			AddRow("doc-2", time.Now().UTC(), "understudy", 0, (*float64)(nil), (*float64)(nil), int64(1400), int64(550)))

	records, err := s.ListComparisons(context.Background(), "understudy")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].SchemaValid)
	require.NotNil(t, records[0].EntityOverlapPct)
	assert.InDelta(t, 91.0, *records[0].EntityOverlapPct, 0.0001)
	assert.False(t, records[1].SchemaValid)
	assert.Nil(t, records[1].RelationOverlapPct)
	assert.NoError(t, mock.ExpectationsWereMet())
}
