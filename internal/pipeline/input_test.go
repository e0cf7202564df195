package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/corroborate/internal/citation"
	"github.com/ppiankov/corroborate/internal/model"
)

const yamlInput = `entityName: Acme Robotics
entityType: company
claims:
  - text: Acme Robotics was founded in 2015
    type: founding
    verdict: verified
    confidence: 0.8
    sources:
      - url: https://www.sec.gov/Archives/edgar/data/1234/filing.htm
        publishedAt: 2024-06-01
branches:
  - branchType: company_profile
    confidence: 0.7
    findings:
      foundedYear: 2015
      headquarters:
        city: Boston
riskSignals:
  - category: litigation
    severity: medium
    description: Pending patent suit
`

const jsonInput = `{
  "entityName": "Acme Robotics",
  "claims": [{"text": "Acme Robotics employs 40 people", "type": "team", "verdict": "unverifiable", "sources": []}],
  "branches": [{"branchType": "team_founders", "findings": {"employeeCount": 40}, "sources": [{"url": "https://www.linkedin.com/company/acme"}]}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadInput(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantClaims   int
		wantBranches int
		wantSignals  int
		wantErr      bool
		desc         string
	}{
		{name: "acme.yaml", content: yamlInput, wantClaims: 1, wantBranches: 1, wantSignals: 1, desc: "yaml document"},
		{name: "acme.JSON", content: jsonInput, wantClaims: 1, wantBranches: 1, desc: "json document by extension"},
		{name: "acme.yml", content: jsonInput, wantClaims: 1, wantBranches: 1, desc: "json parsed as yaml"},
		{name: "broken.json", content: `{"entityName": `, wantErr: true, desc: "truncated json"},
		{name: "broken.yaml", content: "claims: [unclosed", wantErr: true, desc: "malformed yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			input, err := LoadInput(writeFile(t, tt.name, tt.content))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if input.EntityName != "Acme Robotics" {
				t.Errorf("entity = %q", input.EntityName)
			}
			if len(input.Claims) != tt.wantClaims || len(input.Branches) != tt.wantBranches || len(input.RiskSignals) != tt.wantSignals {
				t.Errorf("got %d claims, %d branches, %d signals", len(input.Claims), len(input.Branches), len(input.RiskSignals))
			}
		})
	}
}

func TestLoadInput_YAMLShapes(t *testing.T) {
	input, err := LoadInput(writeFile(t, "acme.yaml", yamlInput))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claim := input.Claims[0]
	if claim.Type != model.ClaimTypeFounding || claim.Verdict != model.VerdictVerified {
		t.Errorf("claim = %+v", claim)
	}
	if got, ok := citation.ParseDate(claim.Sources[0].PublishedAt); !ok || got.Format("2006-01-02") != "2024-06-01" {
		t.Errorf("publishedAt = %#v, want 2024-06-01", claim.Sources[0].PublishedAt)
	}

	branch := input.Branches[0]
	if branch.Confidence == nil || *branch.Confidence != 0.7 {
		t.Errorf("branch confidence = %v", branch.Confidence)
	}
	hq, ok := branch.Findings["headquarters"].(map[string]any)
	if !ok || hq["city"] != "Boston" {
		t.Errorf("nested findings = %#v", branch.Findings["headquarters"])
	}
	if input.RiskSignals[0].Severity != model.RiskMedium {
		t.Errorf("severity = %s", input.RiskSignals[0].Severity)
	}
}

func TestDecodeInput_PublishedAtForms(t *testing.T) {
	tests := []struct {
		value string
		desc  string
	}{
		{value: "2024-06-01", desc: "unquoted yaml date"},
		{value: `"2024-06-01"`, desc: "quoted date string"},
		{value: "2024-06-01T09:30:00Z", desc: "unquoted timestamp"},
		{value: "1717200000000", desc: "epoch millis"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			doc := "entityName: Acme\nclaims:\n  - text: t\n    sources:\n      - url: https://example.com\n        publishedAt: " + tt.value + "\n"
			input, err := DecodeInput([]byte(doc), false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, ok := citation.ParseDate(input.Claims[0].Sources[0].PublishedAt)
			if !ok {
				t.Fatalf("publishedAt %#v not recognised as a date", input.Claims[0].Sources[0].PublishedAt)
			}
			if got.UTC().Format("2006-01-02") != "2024-06-01" {
				t.Errorf("publishedAt = %s, want 2024-06-01", got)
			}
		})
	}
}

func TestLoadInput_MissingFile(t *testing.T) {
	if _, err := LoadInput(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBranches(t *testing.T) {
	tests := []struct {
		content string
		want    []model.BranchType
		wantErr bool
		desc    string
	}{
		{
			content: "- branchType: company_profile\n  findings: {foundedYear: 2015}\n- branchType: regulatory\n  findings: {foundedYear: 2016}\n",
			want:    []model.BranchType{model.BranchCompanyProfile, model.BranchRegulatory},
			desc:    "bare list",
		},
		{content: yamlInput, want: []model.BranchType{model.BranchCompanyProfile}, desc: "full input document"},
		{content: "", desc: "empty file"},
		{content: "branches: [", wantErr: true, desc: "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			branches, err := LoadBranches(writeFile(t, "branches.yaml", tt.content))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(branches) != len(tt.want) {
				t.Fatalf("got %d branches, want %d", len(branches), len(tt.want))
			}
			for i, b := range branches {
				if b.BranchType != tt.want[i] {
					t.Errorf("branch %d = %s, want %s", i, b.BranchType, tt.want[i])
				}
			}
		})
	}
}
