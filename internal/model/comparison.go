package model

import "time"

// ComparisonRecord is one shadow-mode comparison of an understudy extraction
// against the primary extraction of the same document. Append-only, keyed by
// (doc_id, understudy_model).
type ComparisonRecord struct {
	DocID              string    `json:"doc_id"`
	RunDate            time.Time `json:"run_date"`
	UnderstudyModel    string    `json:"understudy_model"`
	SchemaValid        bool      `json:"schema_valid"`
	EntityOverlapPct   *float64  `json:"entity_overlap_pct,omitempty"`
	RelationOverlapPct *float64  `json:"relation_overlap_pct,omitempty"`
	PrimaryMs          int64     `json:"primary_ms"`
	UnderstudyMs       int64     `json:"understudy_ms"`
}

// PromotionStats aggregates comparison records for one understudy model.
type PromotionStats struct {
	UnderstudyModel     string  `json:"understudy_model"`
	Documents           int     `json:"documents"`
	SchemaPassRate      float64 `json:"schema_pass_rate"`
	MeanEntityOverlap   float64 `json:"mean_entity_overlap"`
	MeanRelationOverlap float64 `json:"mean_relation_overlap"`
}
