package judge

import (
	"context"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/worker"
)

// EvaluateClaim reviews one claim's verdict
func (j *Judge) EvaluateClaim(ctx context.Context, entity string, r ClaimReview) Outcome[model.Verdict] {
	ev, err := j.ask(ctx, KindClaim, claimPrompt(entity, r))
	return fold(j, KindClaim, r.Claim.Verdict, r.Claim.Confidence, ev.Verdict, ev.Verdict.Valid(), ev, err)
}

// EvaluateSignal reviews one risk signal's severity
func (j *Judge) EvaluateSignal(ctx context.Context, entity string, r SignalReview) Outcome[model.RiskSeverity] {
	ev, err := j.ask(ctx, KindSignal, signalPrompt(entity, r))
	return fold(j, KindSignal, r.Signal.Severity, r.Signal.Confidence, ev.Severity, ev.Severity.Valid(), ev, err)
}

// EvaluateSource reviews one citation's reliability. The original confidence
// is the classifier's confidence in the source's tier.
func (j *Judge) EvaluateSource(ctx context.Context, entity string, r SourceReview) Outcome[model.Reliability] {
	ev, err := j.ask(ctx, KindSource, sourcePrompt(entity, r))
	valid := ev.Reliability.Rank() > 0
	return fold(j, KindSource, r.Citation.Reliability, r.Confidence, ev.Reliability, valid, ev, err)
}

// EvaluateContradiction reviews how a branch disagreement was resolved
func (j *Judge) EvaluateContradiction(ctx context.Context, entity string, r ContradictionReview) Outcome[model.Resolution] {
	ev, err := j.ask(ctx, KindContradiction, contradictionPrompt(entity, r))
	return fold(j, KindContradiction, r.Contradiction.Resolution, contradictionConfidence(r.Contradiction),
		ev.Resolution, ev.Resolution.Valid(), ev, err)
}

// Batch is the result of evaluating many items of one shape
type Batch[T ~string] struct {
	Outcomes      []Outcome[T] `json:"outcomes"`
	Evaluated     int          `json:"evaluated"`
	Disagreements int          `json:"disagreements"`
	Changed       int          `json:"changed"`
	Fallbacks     int          `json:"fallbacks"`
	AgreementRate float64      `json:"agreement_rate"`
}

// EvaluateClaims reviews claims concurrently
func (j *Judge) EvaluateClaims(ctx context.Context, entity string, reviews []ClaimReview) Batch[model.Verdict] {
	return runBatch(ctx, j, reviews,
		func(ctx context.Context, r ClaimReview) Outcome[model.Verdict] { return j.EvaluateClaim(ctx, entity, r) },
		func(r ClaimReview) Outcome[model.Verdict] {
			return cancelled(j, KindClaim, r.Claim.Verdict, r.Claim.Confidence)
		})
}

// EvaluateSignals reviews risk signals concurrently
func (j *Judge) EvaluateSignals(ctx context.Context, entity string, reviews []SignalReview) Batch[model.RiskSeverity] {
	return runBatch(ctx, j, reviews,
		func(ctx context.Context, r SignalReview) Outcome[model.RiskSeverity] { return j.EvaluateSignal(ctx, entity, r) },
		func(r SignalReview) Outcome[model.RiskSeverity] {
			return cancelled(j, KindSignal, r.Signal.Severity, r.Signal.Confidence)
		})
}

// EvaluateSources reviews sources concurrently
func (j *Judge) EvaluateSources(ctx context.Context, entity string, reviews []SourceReview) Batch[model.Reliability] {
	return runBatch(ctx, j, reviews,
		func(ctx context.Context, r SourceReview) Outcome[model.Reliability] { return j.EvaluateSource(ctx, entity, r) },
		func(r SourceReview) Outcome[model.Reliability] {
			return cancelled(j, KindSource, r.Citation.Reliability, r.Confidence)
		})
}

// EvaluateContradictions reviews contradictions concurrently
func (j *Judge) EvaluateContradictions(ctx context.Context, entity string, reviews []ContradictionReview) Batch[model.Resolution] {
	return runBatch(ctx, j, reviews,
		func(ctx context.Context, r ContradictionReview) Outcome[model.Resolution] {
			return j.EvaluateContradiction(ctx, entity, r)
		},
		func(r ContradictionReview) Outcome[model.Resolution] {
			return cancelled(j, KindContradiction, r.Contradiction.Resolution, contradictionConfidence(r.Contradiction))
		})
}

func runBatch[R any, T ~string](ctx context.Context, j *Judge, items []R,
	eval func(context.Context, R) Outcome[T], skip func(R) Outcome[T]) Batch[T] {
	return Summarize(worker.Map(ctx, j.pool, items, eval, skip))
}

// Summarize counts a batch. Agreement rate is (N - disagreements) / N and is
// a calibration signal, not ground truth; an empty batch agrees fully.
func Summarize[T ~string](outcomes []Outcome[T]) Batch[T] {
	b := Batch[T]{Outcomes: outcomes, Evaluated: len(outcomes), AgreementRate: 1}
	for _, o := range outcomes {
		if o.Disagrees() {
			b.Disagreements++
		}
		if o.Changed {
			b.Changed++
		}
		if o.Fallback {
			b.Fallbacks++
		}
	}
	if b.Evaluated > 0 {
		b.AgreementRate = float64(b.Evaluated-b.Disagreements) / float64(b.Evaluated)
	}
	return b
}

func cancelled[T ~string](j *Judge, kind Kind, original T, conf float64) Outcome[T] {
	return fold(j, kind, original, conf, "", false, evaluation{}, context.Canceled)
}

// contradictionConfidence is the stronger side's confidence, 0.5 when neither is known
func contradictionConfidence(c model.Contradiction) float64 {
	conf := -1.0
	for _, p := range []*float64{c.ConfidenceA, c.ConfidenceB} {
		if p != nil && *p > conf {
			conf = *p
		}
	}
	if conf < 0 {
		return 0.5
	}
	return conf
}
