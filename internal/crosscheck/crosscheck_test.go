package crosscheck

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/corroborate/internal/classify"
	"github.com/ppiankov/corroborate/internal/model"
)

func ptr(f float64) *float64 { return &f }

func TestCompare_EmployeeCountResolvedToA(t *testing.T) {
	checker := New(nil, nil)

	a := model.BranchFinding{
		BranchType: model.BranchCompanyProfile,
		Findings:   map[string]any{"employeeCount": 100.0},
		Confidence: ptr(0.9),
		Sources:    []model.SourceRef{{URL: "https://www.sec.gov/x", Reliability: model.ReliabilityAuthoritative}},
	}
	b := model.BranchFinding{
		BranchType: model.BranchFinancialDeep,
		Findings:   map[string]any{"employeeCount": 250.0},
		Confidence: ptr(0.4),
		Sources:    []model.SourceRef{{URL: "https://techcrunch.com/x", Reliability: model.ReliabilitySecondary}},
	}

	result := checker.Compare(a, b)

	if len(result.Disagreements) != 1 {
		t.Fatalf("Expected one disagreement, got %+v", result.Disagreements)
	}
	d := result.Disagreements[0]
	if d.Field != "employeeCount" || d.Resolution != model.ResolvedToA {
		t.Errorf("Expected employeeCount resolved_to_a, got %s %s", d.Field, d.Resolution)
	}
	// 1.0*0.7*0.9 = 0.63 vs 0.5*0.5*0.4 = 0.10
	if !strings.Contains(d.ResolutionReason, "53% gap") {
		t.Errorf("Expected reason citing the gap, got %q", d.ResolutionReason)
	}
	if result.OverallAgreement != 0 {
		t.Errorf("Expected zero agreement, got %.2f", result.OverallAgreement)
	}
}

func TestCompare_FundingStageAgreement(t *testing.T) {
	checker := New(nil, nil)

	result := checker.Compare(
		model.BranchFinding{BranchType: model.BranchCompanyProfile, Findings: map[string]any{"fundingStage": "Series A"}},
		model.BranchFinding{BranchType: model.BranchFinancialDeep, Findings: map[string]any{"lastRound": map[string]any{"stage": "  series   a "}}},
	)

	if len(result.Disagreements) != 0 {
		t.Errorf("Expected no contradiction, got %+v", result.Disagreements)
	}
	if len(result.Agreements) != 1 || result.Agreements[0].Field != "fundingStage" {
		t.Errorf("Expected fundingStage agreement, got %+v", result.Agreements)
	}
	if result.OverallAgreement != 1 {
		t.Errorf("Expected full agreement, got %.2f", result.OverallAgreement)
	}
}

func TestMatch(t *testing.T) {
	checker := New(nil, nil)

	tests := []struct {
		field    string
		a, b     any
		expected bool
		desc     string
	}{
		{field: "foundedYear", a: 2019.0, b: 2019, expected: true, desc: "Same year across number types"},
		{field: "foundedYear", a: 2019.0, b: "2019", expected: true, desc: "Numeric string"},
		{field: "foundedYear", a: 1990.0, b: 2019.0, expected: false, desc: "Year outside 1%"},
		{field: "employeeCount", a: 100.0, b: 125.0, expected: true, desc: "Within 30%"},
		{field: "employeeCount", a: 100.0, b: 250.0, expected: false, desc: "Outside 30%"},
		{field: "teamSize", a: 10.0, b: 13.0, expected: false, desc: "Outside 20%"},
		{field: "burnRate", a: 100.0, b: 109.0, expected: true, desc: "Default 10% tolerance"},
		{field: "totalRaised", a: "$12.5M", b: map[string]any{"amount": 13.0, "unit": "M"}, expected: true, desc: "Money string vs object"},
		{field: "totalRaised", a: map[string]any{"value": 1.2, "unit": "B"}, b: "1,150 million", expected: true, desc: "Billions vs millions"},
		{field: "totalRaised", a: 12500000.0, b: "$12.5m", expected: true, desc: "Whole currency units"},
		{field: "totalRaised", a: "$10M", b: "$20M", expected: false, desc: "Money outside 15%"},
		{field: "headquarters", a: "San Francisco, CA", b: "SF", expected: true, desc: "Location synonym with state suffix"},
		{field: "headquarters", a: "NYC", b: "London", expected: false, desc: "Different cities"},
		{field: "sectors", a: []any{"AI", "SaaS"}, b: []any{"Artificial Intelligence", "Fintech"}, expected: true, desc: "Half overlap via synonyms"},
		{field: "sectors", a: []any{"AI", "SaaS", "Fintech"}, b: []any{"Healthtech", "ML"}, expected: false, desc: "No overlap"},
		{field: "sectors", a: "AI", b: []any{"artificial intelligence", "saas"}, expected: true, desc: "Scalar against list"},
		{field: "founders", a: []any{map[string]any{"name": "Ada Lovelace"}, map[string]any{"name": "Alan Turing"}}, b: []any{"ada lovelace", "alan turing"}, expected: true, desc: "Founder objects by name"},
		{field: "ceo", a: map[string]any{"name": "Ada"}, b: "Ada", expected: false, desc: "Object vs string is not comparable"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := checker.Match(tt.field, tt.a, tt.b); got != tt.expected {
				t.Errorf("Expected %v for %v vs %v, got %v", tt.expected, tt.a, tt.b, got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	checker := New(nil, nil)

	authoritative := []model.SourceRef{{Reliability: model.ReliabilityAuthoritative}}

	tests := []struct {
		field    string
		a, b     model.BranchFinding
		expected model.Resolution
		desc     string
	}{
		{
			field:    "totalRaised",
			a:        model.BranchFinding{BranchType: model.BranchCompanyProfile, Confidence: ptr(0.5)},
			b:        model.BranchFinding{BranchType: model.BranchFinancialDeep, Confidence: ptr(0.9), Sources: authoritative},
			expected: model.ResolvedToB,
			desc:     "Financial branch wins money field",
		},
		{
			field:    "employeeCount",
			a:        model.BranchFinding{BranchType: model.BranchCompanyProfile, Confidence: ptr(0.6)},
			b:        model.BranchFinding{BranchType: model.BranchTeamFounders, Confidence: ptr(0.6)},
			expected: model.BothValid,
			desc:     "Small gap on a volatile field",
		},
		{
			field:    "headquarters",
			a:        model.BranchFinding{BranchType: model.BranchCompanyProfile, Confidence: ptr(0.6)},
			b:        model.BranchFinding{BranchType: model.BranchRegulatory, Confidence: ptr(0.6)},
			expected: model.Unresolved,
			desc:     "Small gap on a stable field",
		},
		{
			field:    "teamSize",
			a:        model.BranchFinding{BranchType: model.BranchTeamFounders, Confidence: ptr(1), Sources: authoritative},
			b:        model.BranchFinding{BranchType: model.BranchTechnicalDD, Confidence: ptr(0.3)},
			expected: model.ResolvedToA,
			desc:     "Large gap beats temporal ambiguity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := checker.Resolve(tt.field, tt.a, tt.b, 1, 2)
			if got.Resolution != tt.expected {
				t.Errorf("Expected %s, got %s (%s)", tt.expected, got.Resolution, got.ResolutionReason)
			}
			if got.ConfidenceA == nil || got.ConfidenceB == nil {
				t.Error("Expected both confidences recorded")
			}
		})
	}
}

func TestResolve_ConfigurableGap(t *testing.T) {
	cfg := model.DefaultConfig().CrossCheck
	cfg.ResolutionGap = 0.9
	cfg.BothValidFields = nil
	checker := New(&cfg, nil)

	got := checker.Resolve("employeeCount",
		model.BranchFinding{BranchType: model.BranchCompanyProfile, Confidence: ptr(1), Sources: []model.SourceRef{{Reliability: model.ReliabilityAuthoritative}}},
		model.BranchFinding{BranchType: model.BranchFinancialDeep, Confidence: ptr(0.1)},
		100, 250)

	if got.Resolution != model.Unresolved {
		t.Errorf("Expected unresolved under a 90%% gap threshold, got %s", got.Resolution)
	}
}

func TestSourceReliability(t *testing.T) {
	classifier := classify.NewClassifier(&model.DefaultConfig().Classifier, nil)
	checker := New(nil, classifier)

	tests := []struct {
		sources  []model.SourceRef
		expected float64
		desc     string
	}{
		{sources: nil, expected: 0.3, desc: "No sources"},
		{
			sources:  []model.SourceRef{{Reliability: model.ReliabilityAuthoritative}, {Reliability: model.ReliabilitySecondary}},
			expected: 0.75,
			desc:     "Declared labels",
		},
		{
			sources:  []model.SourceRef{{URL: "https://www.reuters.com/x"}, {URL: "https://medium.com/x"}},
			expected: (0.8 + 0.3) / 2,
			desc:     "Unlabelled sources graded by classifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := checker.SourceReliability(model.BranchFinding{Sources: tt.sources})
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Reliability mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompare_OrderIndependent(t *testing.T) {
	checker := New(nil, nil)
	a := model.BranchFinding{
		BranchType: model.BranchFinancialDeep,
		Findings:   map[string]any{"totalRaised": "$40M", "investors": []any{"Sequoia", "Accel"}},
		Confidence: ptr(0.8),
	}
	b := model.BranchFinding{
		BranchType: model.BranchCompanyProfile,
		Findings:   map[string]any{"totalRaised": "$25M", "investors": []any{"Accel", "Sequoia", "YC"}},
		Confidence: ptr(0.6),
	}

	forward := checker.Compare(a, b)
	backward := checker.Compare(b, a)

	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Errorf("Compare depends on argument order (-forward +backward):\n%s", diff)
	}
	if forward.BranchA != model.BranchCompanyProfile {
		t.Errorf("Expected canonical pair order, got %s first", forward.BranchA)
	}
}

func TestCompare_AliasesAndDerivedFields(t *testing.T) {
	checker := New(nil, nil)

	result := checker.Compare(
		model.BranchFinding{BranchType: model.BranchCompanyProfile, Findings: map[string]any{
			"founded":      2019,
			"hq":           map[string]any{"city": "New York", "country": "US"},
			"teamSize":     3,
			"unknownField": "ignored",
		}},
		model.BranchFinding{BranchType: model.BranchTeamFounders, Findings: map[string]any{
			"founding": map[string]any{"year": "2019"},
			"location": "NYC",
			"founders": []any{"A", "B", "C"},
		}},
	)

	var fields []string
	for _, a := range result.Agreements {
		fields = append(fields, a.Field)
	}
	if diff := cmp.Diff([]string{"foundedYear", "headquarters", "teamSize"}, fields); diff != "" {
		t.Errorf("Agreement fields mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckAll(t *testing.T) {
	checker := New(nil, nil)

	branches := []model.BranchFinding{
		{BranchType: model.BranchFinancialDeep, Findings: map[string]any{"fundingStage": "Series B", "totalRaised": "$30M"}},
		{BranchType: model.BranchRegulatory, Findings: nil},
		{BranchType: model.BranchCompanyProfile, Findings: map[string]any{"fundingStage": "Series B", "employeeCount": 80}},
		{BranchType: model.BranchTeamFounders, Findings: map[string]any{"employeeCount": 200}},
	}

	suite := checker.CheckAll(branches)

	if len(suite.Results) != 3 {
		t.Fatalf("Expected 3 pairs (empty branch skipped), got %d", len(suite.Results))
	}
	if suite.Results[0].BranchA != model.BranchCompanyProfile || suite.Results[0].BranchB != model.BranchTeamFounders {
		t.Errorf("Expected canonical pair ordering, got %s/%s", suite.Results[0].BranchA, suite.Results[0].BranchB)
	}
	if suite.Contradictions != 1 || suite.BothValid != 1 {
		t.Errorf("Expected one both_valid contradiction, got %+v", suite)
	}
	// pairs: profile/team 0, profile/financial 1, team/financial 1 (no overlap)
	want := 2.0 / 3.0
	if diff := cmp.Diff(want, suite.OverallAgreement); diff != "" {
		t.Errorf("Overall agreement mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckAll_NoPairs(t *testing.T) {
	suite := New(nil, nil).CheckAll([]model.BranchFinding{
		{BranchType: model.BranchCompanyProfile, Findings: map[string]any{"foundedYear": 2019}},
	})
	if suite.OverallAgreement != 1 || len(suite.Results) != 0 {
		t.Errorf("Expected vacuous agreement, got %+v", suite)
	}
}
