package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/judge"
	"github.com/ppiankov/corroborate/internal/ledger"
	"github.com/ppiankov/corroborate/internal/model"
)

// judgeContradictions asks the judge to settle unresolved disagreements,
// records every answer on the summary and returns those it left unresolved.
// The cross-check suite itself is not touched.
func (p *Pipeline) judgeContradictions(ctx context.Context, entity string, open []model.Contradiction, summary *model.JudgeSummary) []model.Contradiction {
	if len(open) == 0 {
		return open
	}
	reviews := make([]judge.ContradictionReview, len(open))
	for i, c := range open {
		reviews[i] = judge.ContradictionReview{Contradiction: c}
	}

	batch := p.judge.EvaluateContradictions(ctx, entity, reviews)
	summary.ConflictsEvaluated += batch.Evaluated
	summary.ConflictsChanged += batch.Changed
	summary.Fallbacks += batch.Fallbacks

	var remaining []model.Contradiction
	for i, out := range batch.Outcomes {
		c := open[i]
		summary.Contradictions = append(summary.Contradictions, model.JudgedContradiction{
			Contradiction: c,
			Proposed:      out.Proposed,
			Resolution:    out.Value,
			Confidence:    out.Confidence,
			Adopted:       out.Adopted,
			Fallback:      out.Fallback,
			Reasoning:     out.Reasoning,
		})
		if out.Changed {
			p.logger.Info("judge settled contradiction",
				zap.String("field", c.Field),
				zap.String("resolution", string(out.Value)),
				zap.Float64("confidence", out.Confidence))
			continue
		}
		remaining = append(remaining, c)
	}
	return remaining
}

// judgeClaims reviews disputed and context-needed claims. Adopted verdicts are
// written back as a new version triggered by the judge.
func (p *Pipeline) judgeClaims(ctx context.Context, l *ledger.Ledger, entity string, report *model.RunReport) {
	var ids []string
	var reviews []judge.ClaimReview
	for _, vc := range l.Claims() {
		if vc.Archived {
			continue
		}
		if vc.Verdict != model.VerdictDisputed && vc.Verdict != model.VerdictContextNeeded {
			continue
		}
		ids = append(ids, vc.ID)
		reviews = append(reviews, judge.ClaimReview{Claim: vc.Claim})
	}
	summary := report.Judge
	summary.ClaimAgreementRate = 1
	if len(reviews) == 0 {
		return
	}

	batch := p.judge.EvaluateClaims(ctx, entity, reviews)
	summary.ClaimsEvaluated += batch.Evaluated
	summary.ClaimsChanged += batch.Changed
	summary.ClaimAgreementRate = batch.AgreementRate
	summary.Fallbacks += batch.Fallbacks

	for i, out := range batch.Outcomes {
		if !out.Adopted {
			continue
		}
		confidence := out.Confidence
		update := ledger.ClaimUpdate{
			Confidence:  &confidence,
			Reason:      "judge: " + out.Reasoning,
			TriggeredBy: model.TriggerJudge,
		}
		if out.Changed {
			verdict := out.Value
			update.Verdict = &verdict
		}
		if _, err := l.UpdateClaim(ids[i], update); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("apply judge verdict to %s: %v", ids[i], err))
		}
	}
}

// judgeSignals reviews declared risk signals in place
func (p *Pipeline) judgeSignals(ctx context.Context, entity string, report *model.RunReport) {
	if len(report.RiskSignals) == 0 {
		return
	}
	reviews := make([]judge.SignalReview, len(report.RiskSignals))
	for i, s := range report.RiskSignals {
		reviews[i] = judge.SignalReview{Signal: s}
	}

	batch := p.judge.EvaluateSignals(ctx, entity, reviews)
	report.Judge.SignalsEvaluated += batch.Evaluated
	report.Judge.SignalsChanged += batch.Changed
	report.Judge.Fallbacks += batch.Fallbacks

	for i, out := range batch.Outcomes {
		if out.Adopted {
			report.RiskSignals[i].Severity = out.Value
			report.RiskSignals[i].Confidence = out.Confidence
		}
	}
}

// judgeSources asks about sources nobody could rate. Citations are immutable,
// so a changed reliability is reported as a warning rather than rewritten.
func (p *Pipeline) judgeSources(ctx context.Context, l *ledger.Ledger, entity string, report *model.RunReport) {
	seen := make(map[string]bool)
	var reviews []judge.SourceReview
	for _, vc := range l.Claims() {
		if vc.Archived {
			continue
		}
		for _, c := range vc.Citations {
			if c.Reliability != model.ReliabilityUnverified || seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			reviews = append(reviews, judge.SourceReview{
				Citation:   c,
				Confidence: p.classifier.Classify(c.URL, nil).Confidence,
				Context:    []string{"cited for: " + vc.ClaimText},
			})
		}
	}
	if len(reviews) == 0 {
		return
	}

	batch := p.judge.EvaluateSources(ctx, entity, reviews)
	report.Judge.SourcesEvaluated += batch.Evaluated
	report.Judge.SourcesChanged += batch.Changed
	report.Judge.Fallbacks += batch.Fallbacks

	for i, out := range batch.Outcomes {
		if out.Changed {
			report.Warnings = append(report.Warnings, fmt.Sprintf("source %s: judge rates it %s (%.2f), citation kept as %s",
				reviews[i].Citation.URL, out.Value, out.Confidence, out.Original))
		}
	}
}
