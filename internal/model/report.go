package model

import "time"

// Integrity is the coarse trust grade of a ledger snapshot
type Integrity string

const (
	IntegrityHigh   Integrity = "high"
	IntegrityMedium Integrity = "medium"
	IntegrityLow    Integrity = "low"
)

// LedgerSnapshot is the outbound, history-stripped view handed to persistence
type LedgerSnapshot struct {
	EntityName         string    `json:"entity_name"`
	EntityType         string    `json:"entity_type"`
	Claims             []Claim   `json:"claims"`
	OverallIntegrity   Integrity `json:"overall_integrity"`
	ContradictionCount int       `json:"contradiction_count"`
	UnverifiableCount  int       `json:"unverifiable_count"`
	LastUpdated        time.Time `json:"last_updated"`
	Signals            []Signal  `json:"signals,omitempty"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalUnverifiable        SignalType = "unverifiable_claims"
	SignalContradictions      SignalType = "contradictions"
	SignalPrimarySources      SignalType = "primary_sources"
	SignalFreshness           SignalType = "freshness"
	SignalCitationCoverage    SignalType = "citation_coverage"
	SignalBranchAgreement     SignalType = "branch_agreement"
	SignalUnresolvedConflicts SignalType = "unresolved_conflicts"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// ResearchInput is one research run's declared evidence, as read from YAML or JSON
type ResearchInput struct {
	EntityName  string          `json:"entityName" yaml:"entityName"`
	EntityType  string          `json:"entityType" yaml:"entityType"`
	Claims      []ClaimInput    `json:"claims" yaml:"claims"`
	Branches    []BranchFinding `json:"branches" yaml:"branches"`
	RiskSignals []RiskSignal    `json:"riskSignals,omitempty" yaml:"riskSignals,omitempty"`
}

// ClaimInput is a claim as declared by an upstream extractor, with its raw sources
type ClaimInput struct {
	Text          string      `json:"text" yaml:"text"`
	Type          ClaimType   `json:"type" yaml:"type"`
	Verdict       Verdict     `json:"verdict" yaml:"verdict"`
	Confidence    float64     `json:"confidence" yaml:"confidence"`
	ExtractedFrom string      `json:"extractedFrom,omitempty" yaml:"extractedFrom,omitempty"`
	Sources       []SourceRef `json:"sources" yaml:"sources"`
}

// RunReport is everything one pipeline run produced
type RunReport struct {
	Snapshot     LedgerSnapshot    `json:"snapshot"`
	SupportIndex int               `json:"support_index"`
	Confidence   string            `json:"confidence"`
	CrossCheck   CrossCheckSuite   `json:"cross_check"`
	RiskSignals  []RiskSignal      `json:"risk_signals,omitempty"`
	Staleness    []StalenessResult `json:"staleness,omitempty"`
	Merged       int               `json:"merged"`
	Archived     []string          `json:"archived,omitempty"`
	Judge        *JudgeSummary     `json:"judge,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	Duration     time.Duration     `json:"duration"`
}

// JudgeSummary reports the optional overlay pass (never ground truth)
type JudgeSummary struct {
	Provider           string  `json:"provider"`
	Model              string  `json:"model,omitempty"`
	ClaimsEvaluated    int     `json:"claims_evaluated"`
	ClaimsChanged      int     `json:"claims_changed"`
	ClaimAgreementRate float64 `json:"claim_agreement_rate"`
	ConflictsEvaluated int     `json:"conflicts_evaluated"`
	ConflictsChanged   int     `json:"conflicts_changed"`
	SignalsEvaluated   int     `json:"signals_evaluated"`
	SignalsChanged     int     `json:"signals_changed"`
	SourcesEvaluated   int     `json:"sources_evaluated"`
	SourcesChanged     int     `json:"sources_changed"`
	Fallbacks          int     `json:"fallbacks"`

	// Contradictions carries the judge's opinion on each unresolved
	// disagreement; the cross-check suite keeps its own resolution.
	Contradictions []JudgedContradiction `json:"contradictions,omitempty"`
}

// JudgedContradiction pairs an unresolved disagreement with the judge's answer
type JudgedContradiction struct {
	Contradiction Contradiction `json:"contradiction"`
	Proposed      Resolution    `json:"proposed"`
	Resolution    Resolution    `json:"resolution"`
	Confidence    float64       `json:"confidence"`
	Adopted       bool          `json:"adopted"`
	Fallback      bool          `json:"fallback"`
	Reasoning     string        `json:"reasoning"`
}
