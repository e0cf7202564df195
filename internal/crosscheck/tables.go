package crosscheck

import (
	"sort"

	"github.com/ppiankov/corroborate/internal/model"
)

// Tables is the immutable data behind comparison and resolution. Tuning a
// tolerance or synonym is a data change, never a logic change.
type Tables struct {
	PairFields          map[[2]model.BranchType][]string
	CrossCutting        []string
	Tolerances          map[string]float64
	DefaultTolerance    float64
	MoneyTolerance      float64
	MoneyFields         map[string]bool
	SynonymGroups       [][]string
	FieldAuthority      map[model.BranchType]map[string]float64
	DefaultAuthority    float64
	ReliabilityWeights  map[model.Reliability]float64
	NoSourceReliability float64
}

// pairKey orders a branch pair canonically so lookups work in both directions
func pairKey(a, b model.BranchType) [2]model.BranchType {
	if branchRank(b) < branchRank(a) {
		a, b = b, a
	}
	return [2]model.BranchType{a, b}
}

// branchRank is the position in model.AllBranchTypes; unknown types sort last
func branchRank(bt model.BranchType) int {
	for i, known := range model.AllBranchTypes {
		if known == bt {
			return i
		}
	}
	return len(model.AllBranchTypes)
}

// DefaultTables returns the built-in comparison data
func DefaultTables() *Tables {
	return &Tables{
		PairFields: map[[2]model.BranchType][]string{
			pairKey(model.BranchCompanyProfile, model.BranchTeamFounders):      {"founders", "ceo"},
			pairKey(model.BranchCompanyProfile, model.BranchMarketCompetitive): {"competitors", "targetMarket", "businessModel"},
			pairKey(model.BranchCompanyProfile, model.BranchFinancialDeep):     {"revenue", "valuation", "lastRoundDate", "investors"},
			pairKey(model.BranchCompanyProfile, model.BranchTechnicalDD):       {"techStack", "products"},
			pairKey(model.BranchCompanyProfile, model.BranchRegulatory):        {"legalName", "jurisdiction", "licenses"},
			pairKey(model.BranchCompanyProfile, model.BranchNetworkMapping):    {"investors", "boardMembers", "partners"},
			pairKey(model.BranchTeamFounders, model.BranchTechnicalDD):         {"cto"},
			pairKey(model.BranchTeamFounders, model.BranchNetworkMapping):      {"founders", "boardMembers", "advisors"},
			pairKey(model.BranchMarketCompetitive, model.BranchFinancialDeep):  {"revenue", "marketSize"},
			pairKey(model.BranchMarketCompetitive, model.BranchTechnicalDD):    {"products", "competitors"},
			pairKey(model.BranchFinancialDeep, model.BranchRegulatory):         {"legalName", "filings"},
			pairKey(model.BranchFinancialDeep, model.BranchNetworkMapping):     {"investors", "leadInvestor"},
		},
		CrossCutting: []string{
			"foundedYear", "employeeCount", "headquarters", "sectors",
			"totalRaised", "fundingStage", "teamSize",
		},
		Tolerances: map[string]float64{
			"foundedYear":   0.01,
			"employeeCount": 0.30,
			"teamSize":      0.20,
			"totalRaised":   0.15,
		},
		DefaultTolerance: 0.10,
		MoneyTolerance:   0.15,
		MoneyFields: map[string]bool{
			"totalRaised": true,
			"revenue":     true,
			"valuation":   true,
			"marketSize":  true,
		},
		SynonymGroups: [][]string{
			{"san francisco", "sf", "san francisco bay area", "bay area"},
			{"new york", "nyc", "new york city", "ny"},
			{"los angeles", "la"},
			{"london", "greater london"},
			{"united states", "usa", "us", "u.s.", "united states of america"},
			{"united kingdom", "uk", "u.k.", "great britain"},
			{"ai", "artificial intelligence"},
			{"ml", "machine learning"},
			{"saas", "software as a service", "b2b saas"},
			{"fintech", "financial technology"},
			{"healthtech", "health tech", "digital health"},
			{"pre-seed", "preseed", "pre seed"},
			{"seed", "seed round", "seed stage"},
			{"series a", "series-a", "series a round"},
			{"series b", "series-b", "series b round"},
			{"series c", "series-c", "series c round"},
		},
		FieldAuthority: map[model.BranchType]map[string]float64{
			model.BranchCompanyProfile: {
				"foundedYear":   0.8,
				"headquarters":  0.9,
				"employeeCount": 0.7,
				"sectors":       0.7,
				"fundingStage":  0.6,
				"totalRaised":   0.6,
				"teamSize":      0.6,
			},
			model.BranchTeamFounders: {
				"foundedYear":   0.9,
				"employeeCount": 0.8,
				"teamSize":      0.9,
				"founders":      0.95,
			},
			model.BranchMarketCompetitive: {
				"sectors":     0.8,
				"competitors": 0.9,
				"marketSize":  0.85,
			},
			model.BranchFinancialDeep: {
				"totalRaised":  0.95,
				"fundingStage": 0.9,
				"revenue":      0.9,
				"valuation":    0.9,
				"investors":    0.8,
			},
			model.BranchTechnicalDD: {
				"techStack": 0.9,
				"products":  0.8,
				"teamSize":  0.6,
			},
			model.BranchRegulatory: {
				"legalName":    0.95,
				"foundedYear":  0.85,
				"headquarters": 0.8,
			},
			model.BranchNetworkMapping: {
				"investors":    0.85,
				"boardMembers": 0.85,
				"leadInvestor": 0.8,
			},
		},
		DefaultAuthority: 0.5,
		ReliabilityWeights: map[model.Reliability]float64{
			model.ReliabilityAuthoritative: 1.0,
			model.ReliabilityReliable:      0.8,
			model.ReliabilitySecondary:     0.5,
			model.ReliabilityInferred:      0.3,
			model.ReliabilityUnverified:    0.3,
		},
		NoSourceReliability: 0.3,
	}
}

// fieldsFor returns the sorted comparable field set for a branch pair
func (t *Tables) fieldsFor(a, b model.BranchType) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, f := range append(append([]string(nil), t.PairFields[pairKey(a, b)]...), t.CrossCutting...) {
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	return fields
}

func (t *Tables) tolerance(field string) float64 {
	if tol, ok := t.Tolerances[field]; ok {
		return tol
	}
	if t.MoneyFields[field] {
		return t.MoneyTolerance
	}
	return t.DefaultTolerance
}

func (t *Tables) authority(branch model.BranchType, field string) float64 {
	if fields, ok := t.FieldAuthority[branch]; ok {
		if a, ok := fields[field]; ok {
			return a
		}
	}
	return t.DefaultAuthority
}
