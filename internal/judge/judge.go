// Package judge asks a language model for a second opinion on claims, risk
// signals, sources and contradictions. The judge is one weighted opinion: it
// never raises an error and falls back to the original value on any failure.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/llm"
	"github.com/ppiankov/corroborate/internal/logging"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/worker"
)

// ClaimReview asks whether a claim's evidence supports its verdict
type ClaimReview struct {
	Claim   model.Claim
	Context []string
}

// SignalReview asks how severe a risk signal is
type SignalReview struct {
	Signal  model.RiskSignal
	Context []string
}

// SourceReview asks how reliable a cited source is
type SourceReview struct {
	Citation   model.SourceCitation
	Confidence float64
	Context    []string
}

// ContradictionReview asks which side of a branch disagreement holds
type ContradictionReview struct {
	Contradiction model.Contradiction
	Context       []string
}

// evaluation is the union of the four response shapes
type evaluation struct {
	Verdict     model.Verdict      `json:"verdict"`
	Severity    model.RiskSeverity `json:"severity"`
	Reliability model.Reliability  `json:"reliability"`
	Resolution  model.Resolution   `json:"resolution"`
	Confidence  *float64           `json:"confidence"`
	Reasoning   string             `json:"reasoning"`
	RedFlags    []string           `json:"redFlags"`
	GreenFlags  []string           `json:"greenFlags"`
}

// Outcome is the judge's verdict on one item after folding it into the original
type Outcome[T ~string] struct {
	Original           T        `json:"original"`
	Proposed           T        `json:"proposed"`
	Value              T        `json:"value"`
	OriginalConfidence float64  `json:"original_confidence"`
	JudgeConfidence    float64  `json:"judge_confidence"`
	Confidence         float64  `json:"confidence"`
	Changed            bool     `json:"changed"`
	Adopted            bool     `json:"adopted"`
	Fallback           bool     `json:"fallback"`
	Reasoning          string   `json:"reasoning"`
	RedFlags           []string `json:"red_flags,omitempty"`
	GreenFlags         []string `json:"green_flags,omitempty"`
}

// Disagrees reports whether the judge proposed something other than the original
func (o Outcome[T]) Disagrees() bool {
	return !o.Fallback && o.Proposed != o.Original
}

// Judge runs evaluations against one provider
type Judge struct {
	provider llm.Provider
	model    string
	cfg      model.JudgeConfig
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
	pool     *worker.Pool
	logger   *zap.Logger
}

// Option customises a Judge
type Option func(*Judge)

// WithCache stores successful responses so identical prompts are answered once
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(j *Judge) {
		j.cache = c
		j.cacheTTL = ttl
	}
}

// WithLimiter shares a rate limiter across judges
func WithLimiter(l *worker.Limiter) Option {
	return func(j *Judge) { j.limiter = l }
}

// WithModel records the model name for cache keys and reporting
func WithModel(name string) Option {
	return func(j *Judge) { j.model = name }
}

// New creates a judge. A nil provider yields a judge whose every evaluation
// falls back to the original value.
func New(provider llm.Provider, cfg model.JudgeConfig, logger *zap.Logger, opts ...Option) *Judge {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	j := &Judge{
		provider: provider,
		cfg:      cfg,
		logger:   logging.OrNop(logger).Named("judge"),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.limiter == nil {
		j.limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}
	j.pool = worker.NewPool(cfg.MaxConcurrency)
	return j
}

// ProviderName returns the configured provider, or "none"
func (j *Judge) ProviderName() string {
	if j.provider == nil {
		return "none"
	}
	return j.provider.Name()
}

// Model returns the model name used for reporting
func (j *Judge) Model() string {
	return j.model
}

// ask sends one prompt and returns the extracted evaluation. Errors cover
// transport, timeout and unparseable output alike.
func (j *Judge) ask(ctx context.Context, kind Kind, prompt string) (evaluation, error) {
	var ev evaluation
	if j.provider == nil {
		return ev, fmt.Errorf("no judge provider configured")
	}

	key := cache.Key(j.provider.Name(), j.model, systemPrompt, prompt)
	if j.cache != nil {
		if raw, ok := j.cache.Get(key); ok {
			if err := json.Unmarshal(raw, &ev); err == nil {
				j.logger.Debug("judge cache hit", zap.String("kind", string(kind)))
				return ev, nil
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, j.cfg.CallTimeout)
	defer cancel()

	if err := j.limiter.Wait(callCtx, j.provider.Name()); err != nil {
		return ev, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := j.provider.Complete(callCtx, llm.CompletionRequest{
		System: systemPrompt,
		Prompt: prompt,
		Model:  j.model,
		JSON:   true,
	})
	if err != nil {
		return ev, fmt.Errorf("%s call: %w", j.provider.Name(), err)
	}
	j.logger.Debug("judge call complete",
		zap.String("kind", string(kind)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("tokens", resp.TokensUsed))

	raw, stage := ExtractJSON(resp.Text, j.logger)
	if stage == StageEmpty {
		return ev, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("decode %s evaluation: %w", kind, err)
	}

	if j.cache != nil {
		if err := j.cache.Set(key, raw, j.cacheTTL); err != nil {
			j.logger.Warn("judge cache write failed", zap.Error(err))
		}
	}
	return ev, nil
}

// fold turns a judge answer into an Outcome. The proposal is adopted only
// when the judge is at least MinConfidence sure; the resulting confidence
// blends original and judge confidence by Weight.
func fold[T ~string](j *Judge, kind Kind, original T, origConf float64, proposed T, valid bool, ev evaluation, askErr error) Outcome[T] {
	out := Outcome[T]{
		Original:           original,
		Proposed:           original,
		Value:              original,
		OriginalConfidence: origConf,
		Confidence:         origConf,
		RedFlags:           ev.RedFlags,
		GreenFlags:         ev.GreenFlags,
	}

	fallback := func(reason string) Outcome[T] {
		j.logger.Info("judge fallback",
			zap.String("kind", string(kind)),
			zap.String("original", string(original)),
			zap.String("reason", reason))
		out.Fallback = true
		out.RedFlags, out.GreenFlags = nil, nil
		out.Reasoning = fmt.Sprintf("judge evaluation failed (%s); kept original value", reason)
		return out
	}

	switch {
	case askErr != nil:
		return fallback(askErr.Error())
	case proposed == "":
		return fallback("response did not include a proposed value")
	case !valid:
		return fallback(fmt.Sprintf("invalid proposed value %q", proposed))
	}

	judgeConf := origConf
	if ev.Confidence != nil {
		judgeConf = clamp01(*ev.Confidence)
	}
	out.Proposed = proposed
	out.JudgeConfidence = judgeConf
	out.Reasoning = ev.Reasoning

	if judgeConf < j.cfg.MinConfidence {
		out.Reasoning = fmt.Sprintf("judge confidence %.2f below %.2f; kept original. %s",
			judgeConf, j.cfg.MinConfidence, ev.Reasoning)
		return out
	}

	w := clamp01(j.cfg.Weight)
	out.Adopted = true
	out.Value = proposed
	out.Changed = proposed != original
	out.Confidence = (1-w)*origConf + w*judgeConf
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
