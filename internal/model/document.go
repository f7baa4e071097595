// Package model defines the record types shared across the extraction
// pipeline: candidate documents, extractions, quality evaluations, and
// shadow-comparison records.
package model

import "time"

// SignalType classifies how close a feed is to the original reporting.
type SignalType string

const (
	SignalPrimary    SignalType = "primary"
	SignalCommentary SignalType = "commentary"
	SignalCommunity  SignalType = "community"
	SignalEcho       SignalType = "echo"
)

// Document is a candidate article produced by ingestion and consumed once
// by the daily selector.
type Document struct {
	DocID       string    `json:"doc_id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Text        string    `json:"text"`
}

// ScoredDoc is a Document with its admission-control quality score attached.
// It is owned by the selection step and never persisted.
type ScoredDoc struct {
	Document
	QualityScore   float64            `json:"quality_score"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
	WordCount      int                `json:"word_count"`
}
