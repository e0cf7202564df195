package model

// BranchType identifies one independent research workstream
type BranchType string

const (
	BranchCompanyProfile    BranchType = "company_profile"
	BranchTeamFounders      BranchType = "team_founders"
	BranchMarketCompetitive BranchType = "market_competitive"
	BranchFinancialDeep     BranchType = "financial_deep"
	BranchTechnicalDD       BranchType = "technical_dd"
	BranchRegulatory        BranchType = "regulatory"
	BranchNetworkMapping    BranchType = "network_mapping"
)

// AllBranchTypes lists branch types in canonical comparison order
var AllBranchTypes = []BranchType{
	BranchCompanyProfile,
	BranchTeamFounders,
	BranchMarketCompetitive,
	BranchFinancialDeep,
	BranchTechnicalDD,
	BranchRegulatory,
	BranchNetworkMapping,
}

// BranchFinding is the ephemeral output of one research agent
type BranchFinding struct {
	BranchType BranchType     `json:"branchType" yaml:"branchType"`
	Findings   map[string]any `json:"findings" yaml:"findings"`
	Confidence *float64       `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Sources    []SourceRef    `json:"sources" yaml:"sources"`
}

// Resolution is how a contradiction between two branches was settled
type Resolution string

const (
	ResolvedToA Resolution = "resolved_to_a"
	ResolvedToB Resolution = "resolved_to_b"
	BothValid   Resolution = "both_valid"
	Unresolved  Resolution = "unresolved"
)

// Valid reports whether r is one of the known resolutions
func (r Resolution) Valid() bool {
	switch r {
	case ResolvedToA, ResolvedToB, BothValid, Unresolved:
		return true
	}
	return false
}

// Contradiction is a detected disagreement on one field between two branches.
// Emitted once per comparison run and never mutated afterwards.
type Contradiction struct {
	Field            string     `json:"field"`
	SourceA          BranchType `json:"source_a"`
	ValueA           any        `json:"value_a"`
	SourceB          BranchType `json:"source_b"`
	ValueB           any        `json:"value_b"`
	Resolution       Resolution `json:"resolution"`
	ResolutionReason string     `json:"resolution_reason"`
	ConfidenceA      *float64   `json:"confidence_a,omitempty"`
	ConfidenceB      *float64   `json:"confidence_b,omitempty"`
}

// Agreement records a field on which two branches matched
type Agreement struct {
	Field  string `json:"field"`
	ValueA any    `json:"value_a"`
	ValueB any    `json:"value_b"`
}

// CrossCheckResult is the comparison of one unordered branch pair
type CrossCheckResult struct {
	BranchA          BranchType      `json:"branch_a"`
	BranchB          BranchType      `json:"branch_b"`
	Agreements       []Agreement     `json:"agreements"`
	Disagreements    []Contradiction `json:"disagreements"`
	OverallAgreement float64         `json:"overall_agreement"`
}

// CrossCheckSuite aggregates every pairwise result of one run
type CrossCheckSuite struct {
	Results          []CrossCheckResult `json:"results"`
	OverallAgreement float64            `json:"overall_agreement"`
	Contradictions   int                `json:"contradictions"`
	Resolved         int                `json:"resolved"`
	BothValid        int                `json:"both_valid"`
	Unresolved       int                `json:"unresolved"`
}
