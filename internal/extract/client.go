// Package extract turns a selected document into a structured Extraction by
// calling a Claude model, parsing the fenced-JSON response, and validating it
// against the structural schema. Quality judgment lives elsewhere; this
// package only guarantees shape.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/graphdesk/newsgraph/internal/model"
	"github.com/graphdesk/newsgraph/internal/resilience"
	"github.com/graphdesk/newsgraph/pkg/anthropic"
)

const systemPrompt = `You extract a knowledge graph from a news article. Respond with a single JSON object and nothing else:
{"docId": string, "entities": [{"name", "type", "aliases"?, "idHint"?}], "relations": [{"source", "rel", "target", "kind": "asserted"|"inferred"|"hypothesis", "confidence": 0..1, "evidence"?: [{"docId", "url"?, "published"?, "snippet"}]}], "techTerms": [string], "dates": [string], "notes": [string]}
Rules: relation source and target must exactly match an entity name. Every "asserted" relation needs at least one evidence item whose snippet is a verbatim quote from the article, at most 200 characters. Use "inferred" or "hypothesis" when the article does not state the claim outright.`

// Outcome is the result of one extraction call, kept even on parse or schema
// failure so the pipeline can persist what happened.
type Outcome struct {
	Extraction  *model.Extraction
	RawJSON     []byte
	SchemaValid bool
	SchemaErrs  []string
	Model       string
	Usage       anthropic.TokenUsage
	Duration    time.Duration
}

// Extractor calls a Claude model to extract a knowledge graph from one
// document.
type Extractor struct {
	client    anthropic.Client
	maxTokens int64
	retry     resilience.RetryConfig
}

// NewExtractor creates an Extractor over the given API client.
func NewExtractor(client anthropic.Client, maxTokens int64) *Extractor {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract")
	return &Extractor{
		client:    client,
		maxTokens: maxTokens,
		retry:     retry,
	}
}

// Extract runs one model call for doc and returns the structured outcome.
// API errors (after retries) come back with a nil Outcome. Parse and schema
// failures return a partial Outcome alongside ErrParse or ErrSchema so the
// caller can record the failed run.
func (e *Extractor) Extract(ctx context.Context, modelName string, doc model.Document) (*Outcome, error) {
	start := time.Now()

	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     modelName,
			MaxTokens: e.maxTokens,
			System:    systemPrompt,
			Messages: []anthropic.Message{
				{Role: "user", Content: userPrompt(doc)},
			},
		})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "extract: %s", doc.DocID)
	}

	out := &Outcome{
		Model:    modelName,
		Usage:    resp.Usage,
		Duration: time.Since(start),
	}

	ex, raw, err := ParseResponse(resp.Text())
	if err != nil {
		zap.L().Warn("extract: parse failed",
			zap.String("doc_id", doc.DocID),
			zap.String("model", modelName),
			zap.Error(err),
		)
		return out, err
	}
	out.Extraction = ex
	out.RawJSON = raw

	// The model decides most fields; docId is ours.
	if ex.DocID == "" {
		ex.DocID = doc.DocID
	}

	if errs := ValidateSchema(raw); len(errs) > 0 {
		out.SchemaErrs = errs
		zap.L().Warn("extract: schema validation failed",
			zap.String("doc_id", doc.DocID),
			zap.String("model", modelName),
			zap.Strings("violations", errs),
		)
		return out, eris.Wrapf(ErrSchema, "%s: %d violations", doc.DocID, len(errs))
	}
	out.SchemaValid = true

	return out, nil
}

func userPrompt(doc model.Document) string {
	return fmt.Sprintf("docId: %s\ntitle: %s\nurl: %s\npublished: %s\n\n%s",
		doc.DocID, doc.Title, doc.URL, doc.PublishedAt.Format(time.RFC3339), doc.Text)
}
