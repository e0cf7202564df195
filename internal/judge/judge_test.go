package judge

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/llm"
	"github.com/ppiankov/corroborate/internal/model"
)

// mockProvider answers from a function and counts calls
type mockProvider struct {
	respond func(req llm.CompletionRequest) (string, error)
	delay   time.Duration
	calls   int32
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	text, err := m.respond(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Text: text, Model: "mock-1"}, nil
}

func fixed(text string) *mockProvider {
	return &mockProvider{respond: func(llm.CompletionRequest) (string, error) { return text, nil }}
}

func testConfig() model.JudgeConfig {
	return model.JudgeConfig{
		Enabled:        true,
		MaxConcurrency: 4,
		CallTimeout:    time.Second,
		MinConfidence:  0.7,
		Weight:         0.5,
	}
}

func testClaim() model.Claim {
	return model.Claim{
		ID:         "c1",
		ClaimText:  "Acme raised a $12M Series A in 2023",
		ClaimType:  model.ClaimTypeFunding,
		Verdict:    model.VerdictContextNeeded,
		Confidence: 0.6,
		Citations: []model.SourceCitation{
			{URL: "https://www.sec.gov/Archives/edgar/data/1", Reliability: model.ReliabilityAuthoritative},
		},
	}
}

func TestEvaluateClaim(t *testing.T) {
	tests := []struct {
		response     string
		err          error
		wantValue    model.Verdict
		wantProposed model.Verdict
		wantConf     float64
		wantChanged  bool
		wantFallback bool
		wantReason   string
		desc         string
	}{
		{
			response:     `{"verdict":"verified","confidence":0.9,"reasoning":"SEC filing confirms","greenFlags":["primary filing"]}`,
			wantValue:    model.VerdictVerified,
			wantProposed: model.VerdictVerified,
			wantConf:     0.75,
			wantChanged:  true,
			wantReason:   "SEC filing confirms",
			desc:         "confident judge adopted with blended confidence",
		},
		{
			response:     "```json\n{\"verdict\":\"disputed\",\"confidence\":0.5,\"reasoning\":\"weak\"}\n```",
			wantValue:    model.VerdictContextNeeded,
			wantProposed: model.VerdictDisputed,
			wantConf:     0.6,
			wantReason:   "below 0.70",
			desc:         "low confidence proposal kept as opinion only",
		},
		{
			response:     `{"verdict":"context_needed","confidence":1.0,"reasoning":"agree"}`,
			wantValue:    model.VerdictContextNeeded,
			wantProposed: model.VerdictContextNeeded,
			wantConf:     0.8,
			desc:         "agreement raises confidence",
		},
		{
			err:          errors.New("connection refused"),
			wantValue:    model.VerdictContextNeeded,
			wantProposed: model.VerdictContextNeeded,
			wantConf:     0.6,
			wantFallback: true,
			wantReason:   "connection refused",
			desc:         "transport failure falls back",
		},
		{
			response:     `I think this is probably true.`,
			wantValue:    model.VerdictContextNeeded,
			wantProposed: model.VerdictContextNeeded,
			wantConf:     0.6,
			wantFallback: true,
			wantReason:   "no JSON object",
			desc:         "non-json falls back",
		},
		{
			response:     `{"verdict":"probably_true","confidence":0.95}`,
			wantValue:    model.VerdictContextNeeded,
			wantProposed: model.VerdictContextNeeded,
			wantConf:     0.6,
			wantFallback: true,
			wantReason:   "invalid proposed value",
			desc:         "invalid enum falls back",
		},
		{
			response:     `{"confidence":0.95,"reasoning":"no verdict given"}`,
			wantValue:    model.VerdictContextNeeded,
			wantProposed: model.VerdictContextNeeded,
			wantConf:     0.6,
			wantFallback: true,
			desc:         "missing verdict falls back",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			provider := &mockProvider{respond: func(llm.CompletionRequest) (string, error) {
				return tt.response, tt.err
			}}
			j := New(provider, testConfig(), zap.NewNop())

			out := j.EvaluateClaim(context.Background(), "Acme Inc", ClaimReview{Claim: testClaim()})

			if out.Value != tt.wantValue || out.Proposed != tt.wantProposed {
				t.Errorf("value/proposed = %s/%s, want %s/%s", out.Value, out.Proposed, tt.wantValue, tt.wantProposed)
			}
			if math.Abs(out.Confidence-tt.wantConf) > 1e-9 {
				t.Errorf("confidence = %v, want %v", out.Confidence, tt.wantConf)
			}
			if out.Changed != tt.wantChanged || out.Fallback != tt.wantFallback {
				t.Errorf("changed/fallback = %v/%v, want %v/%v", out.Changed, out.Fallback, tt.wantChanged, tt.wantFallback)
			}
			if out.Original != model.VerdictContextNeeded || out.OriginalConfidence != 0.6 {
				t.Errorf("original not preserved: %+v", out)
			}
			if !strings.Contains(out.Reasoning, tt.wantReason) {
				t.Errorf("reasoning %q does not mention %q", out.Reasoning, tt.wantReason)
			}
		})
	}
}

func TestEvaluateClaim_PromptCarriesEntityAndEvidence(t *testing.T) {
	var got llm.CompletionRequest
	provider := &mockProvider{respond: func(req llm.CompletionRequest) (string, error) {
		got = req
		return `{"verdict":"verified","confidence":0.9}`, nil
	}}
	j := New(provider, testConfig(), nil)

	j.EvaluateClaim(context.Background(), "Acme Inc", ClaimReview{
		Claim:   testClaim(),
		Context: []string{"financial_deep reports totalRaised 12M"},
	})

	for _, want := range []string{"Acme Inc", "$12M Series A", "sec.gov/Archives", "[authoritative]", "financial_deep reports totalRaised 12M"} {
		if !strings.Contains(got.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !got.JSON || got.System == "" {
		t.Errorf("expected JSON mode with system prompt, got %+v", got)
	}
}

func TestEvaluateShapes(t *testing.T) {
	conf := 0.8
	j := New(&mockProvider{respond: func(req llm.CompletionRequest) (string, error) {
		switch {
		case strings.Contains(req.Prompt, "risk signal"):
			return `{"severity":"low","confidence":0.9,"reasoning":"resolved lawsuit","greenFlags":["dismissed"]}`, nil
		case strings.Contains(req.Prompt, "how reliable this source"):
			return `{"reliability":"reliable","confidence":0.8,"redFlags":[]}`, nil
		case strings.Contains(req.Prompt, "disagree on the field"):
			return `{"resolution":"both_valid","confidence":0.9,"reasoning":"headcount grew between reports"}`, nil
		}
		return `{}`, nil
	}}, testConfig(), nil)

	signal := j.EvaluateSignal(context.Background(), "Acme", SignalReview{
		Signal: model.RiskSignal{Category: "litigation", Severity: model.RiskHigh, Description: "patent suit", Confidence: 0.6},
	})
	if signal.Value != model.RiskLow || !signal.Changed {
		t.Errorf("signal outcome = %+v", signal)
	}
	if diff := cmp.Diff([]string{"dismissed"}, signal.GreenFlags); diff != "" {
		t.Errorf("green flags mismatch (-want +got):\n%s", diff)
	}

	source := j.EvaluateSource(context.Background(), "Acme", SourceReview{
		Citation:   model.SourceCitation{URL: "https://example.org/report", Reliability: model.ReliabilityUnverified},
		Confidence: 0.5,
	})
	if source.Value != model.ReliabilityReliable || math.Abs(source.Confidence-0.65) > 1e-9 {
		t.Errorf("source outcome = %+v", source)
	}

	conflict := j.EvaluateContradiction(context.Background(), "Acme", ContradictionReview{
		Contradiction: model.Contradiction{
			Field:       "employeeCount",
			SourceA:     model.BranchCompanyProfile,
			ValueA:      120,
			SourceB:     model.BranchTeamFounders,
			ValueB:      180,
			Resolution:  model.Unresolved,
			ConfidenceA: &conf,
		},
	})
	if conflict.Value != model.BothValid || math.Abs(conflict.Confidence-0.85) > 1e-9 {
		t.Errorf("contradiction outcome = %+v", conflict)
	}
}

func TestEvaluateSource_InferredIsNotAValidProposal(t *testing.T) {
	j := New(fixed(`{"reliability":"inferred","confidence":0.9}`), testConfig(), nil)
	out := j.EvaluateSource(context.Background(), "Acme", SourceReview{
		Citation: model.SourceCitation{Reliability: model.ReliabilitySecondary},
	})
	if !out.Fallback || out.Value != model.ReliabilitySecondary {
		t.Errorf("expected fallback to secondary, got %+v", out)
	}
}

func TestNilProviderAlwaysFallsBack(t *testing.T) {
	j := New(nil, testConfig(), nil)
	if j.ProviderName() != "none" {
		t.Errorf("expected provider name none, got %s", j.ProviderName())
	}
	out := j.EvaluateClaim(context.Background(), "Acme", ClaimReview{Claim: testClaim()})
	if !out.Fallback || out.Value != model.VerdictContextNeeded {
		t.Errorf("expected fallback, got %+v", out)
	}
}

func TestCallTimeoutFallsBack(t *testing.T) {
	provider := fixed(`{"verdict":"verified","confidence":0.9}`)
	provider.delay = 200 * time.Millisecond
	cfg := testConfig()
	cfg.CallTimeout = 10 * time.Millisecond
	j := New(provider, cfg, nil)

	start := time.Now()
	out := j.EvaluateClaim(context.Background(), "Acme", ClaimReview{Claim: testClaim()})
	if !out.Fallback {
		t.Fatalf("expected timeout fallback, got %+v", out)
	}
	if time.Since(start) > 150*time.Millisecond {
		t.Errorf("call was not cut off at the timeout")
	}
}

func TestCacheAnswersRepeatPrompts(t *testing.T) {
	provider := fixed(`{"verdict":"verified","confidence":0.9}`)
	j := New(provider, testConfig(), nil, WithCache(cache.NewMemory(time.Minute), time.Minute), WithModel("mock-1"))

	first := j.EvaluateClaim(context.Background(), "Acme", ClaimReview{Claim: testClaim()})
	second := j.EvaluateClaim(context.Background(), "Acme", ClaimReview{Claim: testClaim()})

	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached outcome differs (-first +second):\n%s", diff)
	}
}

func TestCacheSkipsFailedResponses(t *testing.T) {
	provider := fixed(`not json`)
	j := New(provider, testConfig(), nil, WithCache(cache.NewMemory(time.Minute), time.Minute))

	j.EvaluateClaim(context.Background(), "Acme", ClaimReview{Claim: testClaim()})
	j.EvaluateClaim(context.Background(), "Acme", ClaimReview{Claim: testClaim()})

	if provider.calls != 2 {
		t.Errorf("expected unparseable responses to be retried, got %d calls", provider.calls)
	}
}

func TestEvaluateClaims_AgreementRate(t *testing.T) {
	// The judge disputes claims mentioning "layoffs" and agrees with the rest
	provider := &mockProvider{respond: func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "layoffs") {
			return `{"verdict":"disputed","confidence":0.9}`, nil
		}
		if strings.Contains(req.Prompt, "broken") {
			return "", errors.New("upstream 500")
		}
		return `{"verdict":"verified","confidence":0.9}`, nil
	}}
	j := New(provider, testConfig(), nil)

	claims := []string{"Acme has 200 staff", "Acme announced layoffs", "Acme is profitable", "broken claim"}
	reviews := make([]ClaimReview, len(claims))
	for i, text := range claims {
		reviews[i] = ClaimReview{Claim: model.Claim{ClaimText: text, Verdict: model.VerdictVerified, Confidence: 0.8}}
	}

	batch := j.EvaluateClaims(context.Background(), "Acme", reviews)

	if batch.Evaluated != 4 || batch.Disagreements != 1 || batch.Changed != 1 || batch.Fallbacks != 1 {
		t.Errorf("unexpected counts: %+v", batch)
	}
	if batch.AgreementRate != 0.75 {
		t.Errorf("agreement rate = %v, want 0.75", batch.AgreementRate)
	}
	if batch.Outcomes[1].Value != model.VerdictDisputed {
		t.Errorf("outcomes out of order: %+v", batch.Outcomes[1])
	}
}

func TestEvaluateClaims_BoundedConcurrency(t *testing.T) {
	var current, peak int32
	var mu sync.Mutex
	provider := &mockProvider{respond: func(llm.CompletionRequest) (string, error) {
		c := atomic.AddInt32(&current, 1)
		mu.Lock()
		if c > peak {
			peak = c
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return `{"verdict":"verified","confidence":0.9}`, nil
	}}
	cfg := testConfig()
	cfg.MaxConcurrency = 2
	j := New(provider, cfg, nil)

	reviews := make([]ClaimReview, 12)
	for i := range reviews {
		reviews[i] = ClaimReview{Claim: model.Claim{ClaimText: "claim", Verdict: model.VerdictVerified, Confidence: 0.8}}
	}
	j.EvaluateClaims(context.Background(), "Acme", reviews)

	if peak > 2 {
		t.Errorf("peak concurrency %d exceeded cap 2", peak)
	}
}

func TestEvaluateClaims_CancelledContextFallsBackWithoutCalls(t *testing.T) {
	provider := fixed(`{"verdict":"disputed","confidence":0.9}`)
	j := New(provider, testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := j.EvaluateClaims(ctx, "Acme", []ClaimReview{{Claim: testClaim()}, {Claim: testClaim()}})
	if provider.calls != 0 {
		t.Errorf("expected no provider calls after cancel, got %d", provider.calls)
	}
	if batch.Fallbacks != 2 || batch.AgreementRate != 1 {
		t.Errorf("expected two fallbacks with full agreement, got %+v", batch)
	}
}

func TestSummarize_Empty(t *testing.T) {
	b := Summarize[model.Verdict](nil)
	if b.Evaluated != 0 || b.AgreementRate != 1 {
		t.Errorf("unexpected empty summary: %+v", b)
	}
}
