package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/graphdesk/newsgraph/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it,
// which keeps the postgres store unit-testable without a database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS quality_runs (
	run_id         TEXT PRIMARY KEY,
	doc_id         TEXT NOT NULL,
	pipeline_stage TEXT NOT NULL,
	model          TEXT NOT NULL,
	provider       TEXT,
	started_at     TIMESTAMPTZ NOT NULL,
	duration_ms    BIGINT,
	status         TEXT NOT NULL,
	decision       TEXT,
	quality_score  DOUBLE PRECISION,
	input_chars    INTEGER
);

CREATE TABLE IF NOT EXISTS quality_metrics (
	run_id          TEXT NOT NULL REFERENCES quality_runs(run_id),
	metric_name     TEXT NOT NULL,
	metric_value    DOUBLE PRECISION NOT NULL,
	passed          INTEGER NOT NULL,
	severity        INTEGER NOT NULL,
	threshold_value DOUBLE PRECISION,
	notes           TEXT
);

CREATE TABLE IF NOT EXISTS extraction_comparison (
	doc_id               TEXT NOT NULL,
	run_date             TIMESTAMPTZ NOT NULL,
	understudy_model     TEXT NOT NULL,
	schema_valid         INTEGER NOT NULL,
	entity_overlap_pct   DOUBLE PRECISION,
	relation_overlap_pct DOUBLE PRECISION,
	primary_ms           BIGINT NOT NULL DEFAULT 0,
	understudy_ms        BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (doc_id, understudy_model)
);

CREATE INDEX IF NOT EXISTS idx_quality_runs_doc_id ON quality_runs(doc_id);
CREATE INDEX IF NOT EXISTS idx_quality_runs_status ON quality_runs(status);
CREATE INDEX IF NOT EXISTS idx_quality_runs_stage ON quality_runs(pipeline_stage);
CREATE INDEX IF NOT EXISTS idx_quality_metrics_run_id ON quality_metrics(run_id);
CREATE INDEX IF NOT EXISTS idx_comparison_model ON extraction_comparison(understudy_model);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) InsertRun(ctx context.Context, run model.QualityRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quality_runs (run_id, doc_id, pipeline_stage, model, provider, started_at, duration_ms, status, decision, quality_score, input_chars)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.RunID, run.DocID, run.PipelineStage, run.Model, nullStr(run.Provider),
		run.StartedAt.UTC(), run.DurationMs, string(run.Status), nullStr(string(run.Decision)),
		run.QualityScore, run.InputChars,
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.RunID)
}

func (s *PostgresStore) InsertMetrics(ctx context.Context, runID string, metrics []model.QualityMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin metrics tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, m := range metrics {
		_, err := tx.Exec(ctx,
			`INSERT INTO quality_metrics (run_id, metric_name, metric_value, passed, severity, threshold_value, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, m.MetricName, m.MetricValue, boolInt(m.Passed), m.Severity, m.ThresholdValue, nullStr(m.Notes),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert metric %s for run %s", m.MetricName, runID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit metrics")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.QualityRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT run_id, doc_id, pipeline_stage, model, provider, started_at, duration_ms, status, decision, quality_score, input_chars
		 FROM quality_runs WHERE run_id = $1`,
		runID,
	)
	run, err := scanPgRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return run, nil
}

func (s *PostgresStore) GetRunMetrics(ctx context.Context, runID string) ([]model.QualityMetric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, metric_name, metric_value, passed, severity, threshold_value, notes
		 FROM quality_metrics WHERE run_id = $1`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get metrics for run %s", runID)
	}
	defer rows.Close()

	var metrics []model.QualityMetric
	for rows.Next() {
		var m model.QualityMetric
		var passed int
		var notes *string
		if err := rows.Scan(&m.RunID, &m.MetricName, &m.MetricValue, &passed, &m.Severity, &m.ThresholdValue, &notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric")
		}
		m.Passed = passed != 0
		if notes != nil {
			m.Notes = *notes
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "postgres: iterate metrics")
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.QualityRun, error) {
	query := `SELECT run_id, doc_id, pipeline_stage, model, provider, started_at, duration_ms, status, decision, quality_score, input_chars
	          FROM quality_runs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.DocID != "" {
		query += ` AND doc_id = ` + arg(filter.DocID)
	}
	if filter.PipelineStage != "" {
		query += ` AND pipeline_stage = ` + arg(filter.PipelineStage)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.Decision != "" {
		query += ` AND decision = ` + arg(string(filter.Decision))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.QualityRun
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SummarizeRuns(ctx context.Context) ([]StageSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pipeline_stage,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE decision = 'accept'),
		        COUNT(*) FILTER (WHERE decision = 'escalate'),
		        COUNT(*) FILTER (WHERE status != 'completed'),
		        COALESCE(AVG(quality_score), 0)
		 FROM quality_runs
		 GROUP BY pipeline_stage
		 ORDER BY pipeline_stage`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summarize runs")
	}
	defer rows.Close()

	var summaries []StageSummary
	for rows.Next() {
		var sm StageSummary
		if err := rows.Scan(&sm.PipelineStage, &sm.Runs, &sm.Accepted, &sm.Escalated, &sm.Failed, &sm.MeanQualityScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan summary")
		}
		summaries = append(summaries, sm)
	}
	return summaries, eris.Wrap(rows.Err(), "postgres: iterate summaries")
}

func (s *PostgresStore) UpsertComparison(ctx context.Context, rec model.ComparisonRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO extraction_comparison (doc_id, run_date, understudy_model, schema_valid, entity_overlap_pct, relation_overlap_pct, primary_ms, understudy_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (doc_id, understudy_model) DO UPDATE SET
		   run_date = EXCLUDED.run_date,
		   schema_valid = EXCLUDED.schema_valid,
		   entity_overlap_pct = EXCLUDED.entity_overlap_pct,
		   relation_overlap_pct = EXCLUDED.relation_overlap_pct,
		   primary_ms = EXCLUDED.primary_ms,
		   understudy_ms = EXCLUDED.understudy_ms`,
		rec.DocID, rec.RunDate.UTC(), rec.UnderstudyModel, boolInt(rec.SchemaValid),
		rec.EntityOverlapPct, rec.RelationOverlapPct, rec.PrimaryMs, rec.UnderstudyMs,
	)
	return eris.Wrapf(err, "postgres: upsert comparison %s/%s", rec.DocID, rec.UnderstudyModel)
}

func (s *PostgresStore) ListComparisons(ctx context.Context, understudyModel string) ([]model.ComparisonRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT doc_id, run_date, understudy_model, schema_valid, entity_overlap_pct, relation_overlap_pct, primary_ms, understudy_ms
		 FROM extraction_comparison WHERE understudy_model = $1 ORDER BY run_date DESC`,
		understudyModel,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list comparisons")
	}
	defer rows.Close()

	var records []model.ComparisonRecord
	for rows.Next() {
		var rec model.ComparisonRecord
		var schemaValid int
		if err := rows.Scan(&rec.DocID, &rec.RunDate, &rec.UnderstudyModel, &schemaValid,
			&rec.EntityOverlapPct, &rec.RelationOverlapPct, &rec.PrimaryMs, &rec.UnderstudyMs); err != nil {
			return nil, eris.Wrap(err, "postgres: scan comparison")
		}
		rec.SchemaValid = schemaValid != 0
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate comparisons")
}

func scanPgRun(row pgx.Row) (*model.QualityRun, error) {
	var r model.QualityRun
	var provider, decision *string
	var durationMs *int64
	var inputChars *int

	err := row.Scan(&r.RunID, &r.DocID, &r.PipelineStage, &r.Model, &provider,
		&r.StartedAt, &durationMs, &r.Status, &decision, &r.QualityScore, &inputChars)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, err
	}

	if provider != nil {
		r.Provider = *provider
	}
	if decision != nil {
		r.Decision = model.Decision(*decision)
	}
	if durationMs != nil {
		r.DurationMs = *durationMs
	}
	if inputChars != nil {
		r.InputChars = *inputChars
	}
	return &r, nil
}
