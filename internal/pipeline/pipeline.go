// Package pipeline runs one research pass: classify and cite sources, fold
// claims into a ledger, cross-check branches, optionally consult the judge,
// then age and score the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/citation"
	"github.com/ppiankov/corroborate/internal/classify"
	"github.com/ppiankov/corroborate/internal/crosscheck"
	"github.com/ppiankov/corroborate/internal/judge"
	"github.com/ppiankov/corroborate/internal/ledger"
	"github.com/ppiankov/corroborate/internal/llm"
	"github.com/ppiankov/corroborate/internal/logging"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/score"
)

// ErrNoEntity is returned when an input names no entity
var ErrNoEntity = errors.New("research input has no entity name")

// Pipeline orchestrates one research run
type Pipeline struct {
	classifier *classify.Classifier
	citations  *citation.Manager
	checker    *crosscheck.CrossChecker
	scorer     *score.Scorer
	judge      *judge.Judge // nil when disabled
	config     *model.Config
	logger     *zap.Logger
	now        func() time.Time

	judgeSet bool
}

// Option customises a Pipeline
type Option func(*Pipeline)

// WithClock overrides the timestamp source for every stage
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithJudge installs a prebuilt judge, or disables judging when j is nil
func WithJudge(j *judge.Judge) Option {
	return func(p *Pipeline) {
		p.judge = j
		p.judgeSet = true
	}
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	p := &Pipeline{
		config: cfg,
		logger: logging.OrNop(logger).Named("pipeline"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.classifier = classify.NewClassifier(&cfg.Classifier, p.logger, classify.WithClock(p.now))
	p.citations = citation.NewManager(&cfg.Citation, p.classifier, citation.WithClock(p.now))
	p.checker = crosscheck.New(&cfg.CrossCheck, p.classifier)
	p.scorer = score.NewScorer(score.WithClock(p.now))

	if !p.judgeSet && cfg.Judge.Enabled {
		p.judge = p.buildJudge()
	}
	return p
}

// buildJudge wires the configured provider, cache and limiter. A provider
// that cannot be built disables judging with a warning.
func (p *Pipeline) buildJudge() *judge.Judge {
	provider, err := llm.NewProvider(llm.ConfigFromModel(p.config.LLM))
	if err != nil {
		p.logger.Warn("failed to initialize LLM provider; judge disabled", zap.Error(err))
		return nil
	}
	if provider == nil {
		p.logger.Warn("judge enabled but no llm provider configured; judge disabled")
		return nil
	}

	opts := []judge.Option{judge.WithModel(p.config.LLM.Model)}
	if c := cache.New(p.config.Cache); c != nil {
		opts = append(opts, judge.WithCache(c, p.config.Cache.TTL))
	}
	return judge.New(provider, p.config.Judge, p.logger, opts...)
}

// Run executes one research pass over input. Malformed claims and sources
// degrade to warnings; only a missing entity or a cancelled context fails.
func (p *Pipeline) Run(ctx context.Context, input model.ResearchInput) (*model.RunReport, error) {
	if strings.TrimSpace(input.EntityName) == "" {
		return nil, ErrNoEntity
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s: %w", input.EntityName, err)
	}

	start := p.now()
	report := &model.RunReport{StartedAt: start}
	log := p.logger.With(zap.String("entity", input.EntityName))
	log.Info("research run started",
		zap.Int("claims", len(input.Claims)),
		zap.Int("branches", len(input.Branches)),
		zap.Int("risk_signals", len(input.RiskSignals)))

	l := ledger.New(input.EntityName, input.EntityType, &p.config.Ledger, p.logger, ledger.WithClock(p.now))

	// 1. Cite sources and ingest claims
	p.ingest(l, input.Claims, report)

	// 2. Fold near-duplicates
	dedupe, err := l.Deduplicate()
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("deduplication skipped: %v", err))
	}
	report.Merged = dedupe.Removed

	// 3. Compare branches
	report.CrossCheck = p.checker.CheckAll(input.Branches)
	report.RiskSignals = p.riskSignals(input.RiskSignals, report)

	// 4. Second opinion (never aborts the run)
	contradictions := unresolvedContradictions(report.CrossCheck)
	if p.judge != nil {
		report.Judge = &model.JudgeSummary{Provider: p.judge.ProviderName(), Model: p.judge.Model()}
		contradictions = p.judgeContradictions(ctx, input.EntityName, contradictions, report.Judge)
	}

	// 5. Unresolved disagreements become claim notes
	p.linkContradictions(l, contradictions, report)

	if p.judge != nil {
		p.judgeClaims(ctx, l, input.EntityName, report)
		p.judgeSignals(ctx, input.EntityName, report)
		p.judgeSources(ctx, l, input.EntityName, report)
	}

	// 6. Age and archive
	now := p.now()
	report.Staleness = l.CheckAllStaleness(now)
	archived, err := l.ArchiveStale(now)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("archive stale claims: %v", err))
	}
	report.Archived = archived

	// 7. Snapshot and score
	report.Snapshot = l.Snapshot(now)
	assessment := p.scorer.Calculate(report.Snapshot.Claims, &report.CrossCheck)
	report.Snapshot.Signals = assessment.Signals
	report.SupportIndex = assessment.Index
	report.Confidence = assessment.Confidence
	report.Duration = p.now().Sub(start)

	log.Info("research run complete",
		zap.Int("claims", len(report.Snapshot.Claims)),
		zap.Int("merged", report.Merged),
		zap.Int("contradictions", report.CrossCheck.Contradictions),
		zap.String("integrity", string(report.Snapshot.OverallIntegrity)),
		zap.Int("support_index", report.SupportIndex),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

// ingest builds citations for each declared claim and adds it to the ledger
func (p *Pipeline) ingest(l *ledger.Ledger, claims []model.ClaimInput, report *model.RunReport) {
	for i, in := range claims {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("claim %d: empty text, skipped", i))
			continue
		}

		var cites []model.SourceCitation
		for _, ref := range in.Sources {
			c, err := p.citations.New(citation.FromRef(ref))
			if err != nil {
				report.Warnings = append(report.Warnings, fmt.Sprintf("claim %d: %v", i, err))
				continue
			}
			v := p.citations.Validate(c)
			if !v.Valid {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("claim %d: dropped source %s: %s", i, c.URL, strings.Join(v.Errors, "; ")))
				continue
			}
			for _, w := range v.Warnings {
				report.Warnings = append(report.Warnings, fmt.Sprintf("claim %d: source %s: %s", i, c.URL, w))
			}
			cites = append(cites, c)
		}

		// Primary source first, then by reliability and recency
		set := citation.Aggregate(cites)
		if set.Primary != nil {
			cites = append([]model.SourceCitation{*set.Primary}, set.Supporting...)
		}

		_, outcome, err := l.AddClaim(model.Claim{
			ClaimText:     text,
			ClaimType:     in.Type,
			Verdict:       in.Verdict,
			Confidence:    in.Confidence,
			ExtractedFrom: in.ExtractedFrom,
			Citations:     cites,
		}, nil)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("claim %d: %v", i, err))
			continue
		}
		p.logger.Debug("claim ingested",
			zap.Int("index", i),
			zap.String("outcome", string(outcome)),
			zap.Int("citations", len(cites)),
			zap.Float64("reliability_score", set.ReliabilityScore))
	}
}

// riskSignals keeps declared signals with a known severity
func (p *Pipeline) riskSignals(signals []model.RiskSignal, report *model.RunReport) []model.RiskSignal {
	var kept []model.RiskSignal
	for i, s := range signals {
		if !s.Severity.Valid() {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("risk signal %d: unknown severity %q, skipped", i, s.Severity))
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func unresolvedContradictions(suite model.CrossCheckSuite) []model.Contradiction {
	var out []model.Contradiction
	for _, r := range suite.Results {
		for _, c := range r.Disagreements {
			if c.Resolution == model.Unresolved {
				out = append(out, c)
			}
		}
	}
	return out
}
