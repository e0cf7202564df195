package model

import "time"

// Verdict is the current truth assessment of a claim
type Verdict string

const (
	VerdictVerified      Verdict = "verified"
	VerdictDisputed      Verdict = "disputed"
	VerdictUnverifiable  Verdict = "unverifiable"
	VerdictContextNeeded Verdict = "context_needed"
)

// Valid reports whether v is one of the known verdicts
func (v Verdict) Valid() bool {
	switch v {
	case VerdictVerified, VerdictDisputed, VerdictUnverifiable, VerdictContextNeeded:
		return true
	}
	return false
}

// ClaimType categorizes the factual assertion
type ClaimType string

const (
	ClaimTypeFunding    ClaimType = "funding"
	ClaimTypeRevenue    ClaimType = "revenue"
	ClaimTypeTeam       ClaimType = "team"
	ClaimTypeFounding   ClaimType = "founding"
	ClaimTypeProduct    ClaimType = "product"
	ClaimTypeMarket     ClaimType = "market"
	ClaimTypeRegulatory ClaimType = "regulatory"
	ClaimTypeGeneral    ClaimType = "general"
)

// Claim is the public view of a single factual assertion about an entity
type Claim struct {
	ID             string           `json:"id"`
	ClaimText      string           `json:"claim_text"`
	ClaimType      ClaimType        `json:"claim_type"`
	Verdict        Verdict          `json:"verdict"`
	Confidence     float64          `json:"confidence"`
	ExtractedFrom  string           `json:"extracted_from,omitempty"`
	Citations      []SourceCitation `json:"citations"`
	Contradictions []string         `json:"contradictions,omitempty"` // human-readable contradiction notes
	Freshness      Freshness        `json:"freshness,omitempty"`      // set on snapshot export only
}

// VerdictDelta records one verdict transition; history is append-only
type VerdictDelta struct {
	FromVerdict Verdict   `json:"from_verdict"`
	ToVerdict   Verdict   `json:"to_verdict"`
	Timestamp   time.Time `json:"timestamp"`
	Reason      string    `json:"reason"`
	TriggeredBy string    `json:"triggered_by"`
}

// Trigger identifiers for VerdictDelta.TriggeredBy
const (
	TriggerNewEvidence   = "new_evidence"
	TriggerContradiction = "contradiction_resolution"
	TriggerDeduplication = "deduplication"
	TriggerJudge         = "judge"
	TriggerStaleness     = "staleness"
	TriggerManual        = "manual"
)

// VersionedClaim is the ledger's internal, history-carrying record
type VersionedClaim struct {
	Claim
	Version           int              `json:"version"`
	PreviousVersionID string           `json:"previous_version_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	VerdictHistory    []VerdictDelta   `json:"verdict_history"`
	SourceHistory     []SourceCitation `json:"source_history"`
	MergedFromIDs     []string         `json:"merged_from_ids,omitempty"`
	Archived          bool             `json:"archived,omitempty"`
}

// Freshness buckets claim age for snapshot export
type Freshness string

const (
	FreshnessCurrent    Freshness = "current"
	FreshnessStale      Freshness = "stale"
	FreshnessHistorical Freshness = "historical"
)

// StaleAction is the recommended follow-up for an aged claim
type StaleAction string

const (
	ActionKeep    StaleAction = "keep"
	ActionRefresh StaleAction = "refresh"
	ActionArchive StaleAction = "archive"
)

// StalenessResult is the outcome of a staleness check for one claim
type StalenessResult struct {
	ClaimID           string        `json:"claim_id"`
	IsStale           bool          `json:"is_stale"`
	Age               time.Duration `json:"age"`
	StaleSources      int           `json:"stale_sources"`
	TotalSources      int           `json:"total_sources"`
	RecommendedAction StaleAction   `json:"recommended_action"`
	Reason            string        `json:"reason"`
}
