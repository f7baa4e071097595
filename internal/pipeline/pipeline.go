// Package pipeline orchestrates the daily run: ingest feeds, select the
// documents worth extracting, call the model per document, evaluate every
// extraction through the gates and quality scorer, persist the outcome, and
// merge accepted extractions into the knowledge graph.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/cost"
	"github.com/graphdesk/newsgraph/internal/escalation"
	"github.com/graphdesk/newsgraph/internal/extract"
	"github.com/graphdesk/newsgraph/internal/feed"
	"github.com/graphdesk/newsgraph/internal/gates"
	"github.com/graphdesk/newsgraph/internal/graph"
	"github.com/graphdesk/newsgraph/internal/model"
	"github.com/graphdesk/newsgraph/internal/selector"
	"github.com/graphdesk/newsgraph/internal/shadow"
	"github.com/graphdesk/newsgraph/internal/store"
)

// Pipeline stages recorded on quality runs.
const (
	StageDaily      = "daily"
	StageEscalation = "escalation"
	StageShadow     = "shadow"
)

// Options control one pipeline invocation.
type Options struct {
	RunDate time.Time
	Shadow  bool
	DryRun  bool
}

// Pipeline wires the collaborators for a daily run.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	fetcher   feed.Fetcher
	selector  *selector.BudgetSelector
	extractor *extract.Extractor
	engine    *escalation.Engine
	calc      *cost.Calculator
	limiter   *rate.Limiter
}

// New creates a Pipeline from config and its collaborators.
func New(cfg *config.Config, st store.Store, fetcher feed.Fetcher, extractor *extract.Extractor) *Pipeline {
	interval := time.Duration(cfg.Pipeline.RequestIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	rates := make(map[string]cost.ModelRate, len(cfg.Pricing.Anthropic))
	for name, p := range cfg.Pricing.Anthropic {
		rates[name] = cost.ModelRate{Input: p.Input, Output: p.Output}
	}

	return &Pipeline{
		cfg:       cfg,
		store:     st,
		fetcher:   fetcher,
		selector:  selector.New(cfg.Selector),
		extractor: extractor,
		engine:    escalation.NewEngine(cfg.Gates, cfg.Quality, cfg.Escalation),
		calc:      cost.NewCalculator(rates),
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Run executes one daily pipeline invocation under the run lock.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	lock, err := AcquireLock(p.cfg.Pipeline.LockPath)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			zap.L().Warn("pipeline: lock release failed", zap.Error(rerr))
		}
	}()

	if opts.RunDate.IsZero() {
		opts.RunDate = time.Now().UTC()
	}

	selected := p.SelectCandidates(ctx)
	if opts.DryRun {
		zap.L().Info("pipeline: dry run, skipping extraction",
			zap.Int("selected", len(selected)),
		)
		return nil
	}

	g, err := graph.Load(p.cfg.Pipeline.GraphPath)
	if err != nil {
		return err
	}

	var totalCost float64
	for _, sd := range selected {
		if err := p.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "pipeline: rate limit wait")
		}
		totalCost += p.processDocument(ctx, sd.Document, opts, g)
	}

	if p.cfg.Pipeline.GraphPath != "" && len(g.Nodes()) > 0 {
		if err := g.Save(p.cfg.Pipeline.GraphPath); err != nil {
			return err
		}
	}

	zap.L().Info("pipeline: run complete",
		zap.Time("run_date", opts.RunDate),
		zap.Int("selected", len(selected)),
		zap.Int("graph_nodes", len(g.Nodes())),
		zap.Int("graph_edges", len(g.Edges())),
		zap.Float64("cost_usd", totalCost),
	)
	return nil
}

// SelectCandidates fetches all feeds and runs budget selection. Exposed for
// the select command, which stops here.
func (p *Pipeline) SelectCandidates(ctx context.Context) []model.ScoredDoc {
	fetchCtx := ctx
	if secs := p.cfg.Pipeline.FeedTimeoutSecs; secs > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	docs := feed.FetchAll(fetchCtx, p.fetcher, p.cfg.Feeds)
	return p.selector.Select(docs, feed.TierMap(p.cfg.Feeds), feed.SignalMap(p.cfg.Feeds))
}

// processDocument runs extraction and evaluation for one document, including
// the escalation re-run and the optional shadow call. Persistence failures
// are logged, not fatal: one bad write must not abort the day's budget.
// Returns the dollar cost incurred.
func (p *Pipeline) processDocument(ctx context.Context, doc model.Document, opts Options, g *graph.Graph) float64 {
	outcome, err := p.runStage(ctx, doc, StageDaily, p.cfg.Anthropic.PrimaryModel, g)
	var total float64
	if outcome != nil && outcome.Outcome != nil {
		total += p.calc.Claude(outcome.Model, outcome.Usage.InputTokens, outcome.Usage.OutputTokens)
	}

	escalated := err == nil && outcome != nil && outcome.eval != nil && outcome.eval.Escalate
	if escalated && p.cfg.Anthropic.EscalationModel != "" {
		if werr := p.limiter.Wait(ctx); werr != nil {
			return total
		}
		esc, _ := p.runStage(ctx, doc, StageEscalation, p.cfg.Anthropic.EscalationModel, g)
		if esc != nil && esc.Outcome != nil {
			total += p.calc.Claude(esc.Model, esc.Usage.InputTokens, esc.Usage.OutputTokens)
		}
	}

	if opts.Shadow && p.cfg.Anthropic.UnderstudyModel != "" && outcome != nil {
		if werr := p.limiter.Wait(ctx); werr != nil {
			return total
		}
		total += p.runShadow(ctx, doc, opts.RunDate, outcome)
	}

	return total
}

// stageOutcome carries what a stage produced, for escalation and shadow
// decisions downstream.
type stageOutcome struct {
	*extract.Outcome
	eval *model.QualityEvaluation
}

// runStage performs one extraction call plus evaluation and persists the run.
// Accepted extractions merge into the graph.
func (p *Pipeline) runStage(ctx context.Context, doc model.Document, stage, modelName string, g *graph.Graph) (*stageOutcome, error) {
	runID := uuid.NewString()
	started := time.Now().UTC()

	outcome, err := p.extractor.Extract(ctx, modelName, doc)
	run := model.QualityRun{
		RunID:         runID,
		DocID:         doc.DocID,
		PipelineStage: stage,
		Model:         modelName,
		Provider:      "anthropic",
		StartedAt:     started,
		InputChars:    len(doc.Text),
	}
	if outcome != nil {
		run.DurationMs = outcome.Duration.Milliseconds()
	}

	if err != nil {
		run.Status = statusForError(err)
		p.persistRun(ctx, run, nil)
		return &stageOutcome{Outcome: outcome}, err
	}

	eval := p.engine.Evaluate(outcome.Extraction, doc.Text)
	run.Status = model.RunStatusCompleted
	run.Decision = eval.Decision()
	score := eval.Quality.Combined
	run.QualityScore = &score

	p.persistRun(ctx, run, &eval)

	if !eval.Escalate && g != nil {
		g.Merge(outcome.Extraction)
	}

	return &stageOutcome{Outcome: outcome, eval: &eval}, nil
}

// runShadow calls the understudy model and persists a comparison record
// against the primary outcome. Shadow results never touch the decision path.
// Returns the dollar cost of the understudy call.
func (p *Pipeline) runShadow(ctx context.Context, doc model.Document, runDate time.Time, primary *stageOutcome) float64 {
	understudyModel := p.cfg.Anthropic.UnderstudyModel

	outcome, err := p.extractor.Extract(ctx, understudyModel, doc)
	var costUSD float64
	if outcome != nil {
		costUSD = p.calc.Claude(understudyModel, outcome.Usage.InputTokens, outcome.Usage.OutputTokens)
	}
	if err != nil && outcome == nil {
		zap.L().Warn("pipeline: shadow call failed",
			zap.String("doc_id", doc.DocID),
			zap.String("model", understudyModel),
			zap.Error(err),
		)
		return costUSD
	}

	var cmp *shadow.Comparison
	if outcome.SchemaValid && primary.Outcome != nil && primary.Extraction != nil {
		c := shadow.Compare(primary.Extraction, outcome.Extraction)
		cmp = &c
	}

	var primaryMs int64
	if primary.Outcome != nil {
		primaryMs = primary.Outcome.Duration.Milliseconds()
	}
	rec := shadow.Record(doc.DocID, runDate, understudyModel, cmp, primaryMs, outcome.Duration.Milliseconds())

	if err := p.store.UpsertComparison(ctx, rec); err != nil {
		zap.L().Error("pipeline: persist comparison failed",
			zap.String("doc_id", doc.DocID),
			zap.Error(err),
		)
	}
	return costUSD
}

func (p *Pipeline) persistRun(ctx context.Context, run model.QualityRun, eval *model.QualityEvaluation) {
	if err := p.store.InsertRun(ctx, run); err != nil {
		zap.L().Error("pipeline: persist run failed",
			zap.String("run_id", run.RunID),
			zap.String("doc_id", run.DocID),
			zap.Error(err),
		)
		return
	}
	if eval == nil {
		return
	}
	metrics := MetricsFromEvaluation(run.RunID, *eval, p.cfg)
	if err := p.store.InsertMetrics(ctx, run.RunID, metrics); err != nil {
		zap.L().Error("pipeline: persist metrics failed",
			zap.String("run_id", run.RunID),
			zap.Error(err),
		)
	}
}

func statusForError(err error) model.RunStatus {
	switch {
	case eris.Is(err, extract.ErrParse):
		return model.RunStatusParseFailed
	case eris.Is(err, extract.ErrSchema):
		return model.RunStatusSchemaFailed
	default:
		return model.RunStatusAPIFailed
	}
}

// MetricsFromEvaluation flattens an evaluation into quality_metrics rows:
// one per gate, one per quality signal, one for the combined score.
func MetricsFromEvaluation(runID string, eval model.QualityEvaluation, cfg *config.Config) []model.QualityMetric {
	var out []model.QualityMetric

	for _, gr := range eval.Gates.Gates {
		m := model.QualityMetric{
			RunID:       runID,
			MetricName:  "gate_" + gr.Name,
			MetricValue: gr.MetricValue,
			Passed:      gr.Passed,
			Notes:       gr.Details,
		}
		if !gr.Passed {
			m.Severity = 2
		}
		if t, ok := gateThreshold(gr.Name, cfg); ok {
			m.ThresholdValue = &t
		}
		out = append(out, m)
	}

	signals := []struct {
		name  string
		value float64
	}{
		{"density_score", eval.Quality.Density},
		{"evidence_score", eval.Quality.Evidence},
		{"confidence_score", eval.Quality.Confidence},
		{"connectivity_score", eval.Quality.Connectivity},
		{"tech_score", eval.Quality.Tech},
	}
	for _, s := range signals {
		out = append(out, model.QualityMetric{
			RunID:       runID,
			MetricName:  s.name,
			MetricValue: s.value,
			Passed:      true,
		})
	}

	threshold := cfg.Escalation.ScoreThreshold
	combined := model.QualityMetric{
		RunID:          runID,
		MetricName:     "combined_score",
		MetricValue:    eval.Quality.Combined,
		Passed:         eval.Quality.Combined >= threshold,
		ThresholdValue: &threshold,
		Notes:          eval.DecisionReason,
	}
	if !combined.Passed {
		combined.Severity = 1
	}
	out = append(out, combined)

	return out
}

func gateThreshold(name string, cfg *config.Config) (float64, bool) {
	switch name {
	case gates.GateEvidenceFidelity:
		return cfg.Gates.EvidenceMatchRateMin, true
	case gates.GateOrphanEndpoints, gates.GateHighConfidenceBadEvidence:
		return 0, true // passing value of the violation count
	default:
		return 0, false
	}
}
