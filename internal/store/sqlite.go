package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/graphdesk/newsgraph/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS quality_runs (
	run_id         TEXT PRIMARY KEY,
	doc_id         TEXT NOT NULL,
	pipeline_stage TEXT NOT NULL,
	model          TEXT NOT NULL,
	provider       TEXT,
	started_at     DATETIME NOT NULL,
	duration_ms    INTEGER,
	status         TEXT NOT NULL,
	decision       TEXT,
	quality_score  REAL,
	input_chars    INTEGER
);

CREATE TABLE IF NOT EXISTS quality_metrics (
	run_id          TEXT NOT NULL REFERENCES quality_runs(run_id),
	metric_name     TEXT NOT NULL,
	metric_value    REAL NOT NULL,
	passed          INTEGER NOT NULL,
	severity        INTEGER NOT NULL,
	threshold_value REAL,
	notes           TEXT
);

CREATE TABLE IF NOT EXISTS extraction_comparison (
	doc_id               TEXT NOT NULL,
	run_date             DATETIME NOT NULL,
	understudy_model     TEXT NOT NULL,
	schema_valid         INTEGER NOT NULL,
	entity_overlap_pct   REAL,
	relation_overlap_pct REAL,
	primary_ms           INTEGER NOT NULL DEFAULT 0,
	understudy_ms        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (doc_id, understudy_model)
);

CREATE INDEX IF NOT EXISTS idx_quality_runs_doc_id ON quality_runs(doc_id);
CREATE INDEX IF NOT EXISTS idx_quality_runs_status ON quality_runs(status);
CREATE INDEX IF NOT EXISTS idx_quality_runs_stage ON quality_runs(pipeline_stage);
CREATE INDEX IF NOT EXISTS idx_quality_metrics_run_id ON quality_metrics(run_id);
CREATE INDEX IF NOT EXISTS idx_comparison_model ON extraction_comparison(understudy_model);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertRun(ctx context.Context, run model.QualityRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quality_runs (run_id, doc_id, pipeline_stage, model, provider, started_at, duration_ms, status, decision, quality_score, input_chars)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.DocID, run.PipelineStage, run.Model, nullStr(run.Provider),
		run.StartedAt.UTC(), run.DurationMs, string(run.Status), nullStr(string(run.Decision)),
		run.QualityScore, run.InputChars,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.RunID)
}

func (s *SQLiteStore) InsertMetrics(ctx context.Context, runID string, metrics []model.QualityMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin metrics tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, m := range metrics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quality_metrics (run_id, metric_name, metric_value, passed, severity, threshold_value, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, m.MetricName, m.MetricValue, boolInt(m.Passed), m.Severity, m.ThresholdValue, nullStr(m.Notes),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert metric %s for run %s", m.MetricName, runID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit metrics")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.QualityRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, doc_id, pipeline_stage, model, provider, started_at, duration_ms, status, decision, quality_score, input_chars
		 FROM quality_runs WHERE run_id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) GetRunMetrics(ctx context.Context, runID string) ([]model.QualityMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, metric_name, metric_value, passed, severity, threshold_value, notes
		 FROM quality_metrics WHERE run_id = ?`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get metrics for run %s", runID)
	}
	defer rows.Close()

	var metrics []model.QualityMetric
	for rows.Next() {
		var m model.QualityMetric
		var passed int
		var notes sql.NullString
		if err := rows.Scan(&m.RunID, &m.MetricName, &m.MetricValue, &passed, &m.Severity, &m.ThresholdValue, &notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric")
		}
		m.Passed = passed != 0
		m.Notes = notes.String
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "sqlite: iterate metrics")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.QualityRun, error) {
	query := `SELECT run_id, doc_id, pipeline_stage, model, provider, started_at, duration_ms, status, decision, quality_score, input_chars
	          FROM quality_runs WHERE 1=1`
	var args []any

	if filter.DocID != "" {
		query += ` AND doc_id = ?`
		args = append(args, filter.DocID)
	}
	if filter.PipelineStage != "" {
		query += ` AND pipeline_stage = ?`
		args = append(args, filter.PipelineStage)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Decision != "" {
		query += ` AND decision = ?`
		args = append(args, string(filter.Decision))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.QualityRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SummarizeRuns(ctx context.Context) ([]StageSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pipeline_stage,
		        COUNT(*),
		        SUM(CASE WHEN decision = 'accept' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN decision = 'escalate' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN status != 'completed' THEN 1 ELSE 0 END),
		        COALESCE(AVG(quality_score), 0)
		 FROM quality_runs
		 GROUP BY pipeline_stage
		 ORDER BY pipeline_stage`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize runs")
	}
	defer rows.Close()

	var summaries []StageSummary
	for rows.Next() {
		var sm StageSummary
		if err := rows.Scan(&sm.PipelineStage, &sm.Runs, &sm.Accepted, &sm.Escalated, &sm.Failed, &sm.MeanQualityScore); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan summary")
		}
		summaries = append(summaries, sm)
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: iterate summaries")
}

func (s *SQLiteStore) UpsertComparison(ctx context.Context, rec model.ComparisonRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extraction_comparison (doc_id, run_date, understudy_model, schema_valid, entity_overlap_pct, relation_overlap_pct, primary_ms, understudy_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (doc_id, understudy_model) DO UPDATE SET
		   run_date = excluded.run_date,
		   schema_valid = excluded.schema_valid,
		   entity_overlap_pct = excluded.entity_overlap_pct,
		   relation_overlap_pct = excluded.relation_overlap_pct,
		   primary_ms = excluded.primary_ms,
		   understudy_ms = excluded.understudy_ms`,
		rec.DocID, rec.RunDate.UTC(), rec.UnderstudyModel, boolInt(rec.SchemaValid),
		rec.EntityOverlapPct, rec.RelationOverlapPct, rec.PrimaryMs, rec.UnderstudyMs,
	)
	return eris.Wrapf(err, "sqlite: upsert comparison %s/%s", rec.DocID, rec.UnderstudyModel)
}

func (s *SQLiteStore) ListComparisons(ctx context.Context, understudyModel string) ([]model.ComparisonRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, run_date, understudy_model, schema_valid, entity_overlap_pct, relation_overlap_pct, primary_ms, understudy_ms
		 FROM extraction_comparison WHERE understudy_model = ? ORDER BY run_date DESC`,
		understudyModel,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list comparisons")
	}
	defer rows.Close()

	var records []model.ComparisonRecord
	for rows.Next() {
		var rec model.ComparisonRecord
		var schemaValid int
		var runDate time.Time
		if err := rows.Scan(&rec.DocID, &runDate, &rec.UnderstudyModel, &schemaValid,
			&rec.EntityOverlapPct, &rec.RelationOverlapPct, &rec.PrimaryMs, &rec.UnderstudyMs); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan comparison")
		}
		rec.SchemaValid = schemaValid != 0
		rec.RunDate = runDate
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate comparisons")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.QualityRun, error) {
	var r model.QualityRun
	var provider, decision sql.NullString
	var durationMs sql.NullInt64
	var inputChars sql.NullInt64

	err := row.Scan(&r.RunID, &r.DocID, &r.PipelineStage, &r.Model, &provider,
		&r.StartedAt, &durationMs, &r.Status, &decision, &r.QualityScore, &inputChars)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.Provider = provider.String
	r.Decision = model.Decision(decision.String)
	r.DurationMs = durationMs.Int64
	r.InputChars = int(inputChars.Int64)
	return &r, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
