package crosscheck

import "github.com/ppiankov/corroborate/internal/model"

// extractor reads one field out of an opaque findings object
type extractor func(findings map[string]any) (any, bool)

// at walks a fixed key path through nested objects
func at(keys ...string) extractor {
	return func(findings map[string]any) (any, bool) {
		var cur any = findings
		for _, key := range keys {
			obj, ok := asObject(cur)
			if !ok {
				return nil, false
			}
			if cur, ok = obj[key]; !ok || cur == nil {
				return nil, false
			}
		}
		return cur, true
	}
}

// firstOf returns the first extractor that finds a value
func firstOf(extractors ...extractor) extractor {
	return func(findings map[string]any) (any, bool) {
		for _, ex := range extractors {
			if v, ok := ex(findings); ok {
				return v, true
			}
		}
		return nil, false
	}
}

// lengthOf derives a count from an array
func lengthOf(ex extractor) extractor {
	return func(findings map[string]any) (any, bool) {
		v, ok := ex(findings)
		if !ok {
			return nil, false
		}
		list, ok := asList(v)
		if !ok || len(list) == 0 {
			return nil, false
		}
		return float64(len(list)), true
	}
}

// cityOf accepts either a location string or an object carrying a city
func cityOf(ex extractor) extractor {
	return func(findings map[string]any) (any, bool) {
		v, ok := ex(findings)
		if !ok {
			return nil, false
		}
		if obj, isObj := asObject(v); isObj {
			city, found := obj["city"]
			return city, found && city != nil
		}
		return v, true
	}
}

// fieldAccessors apply to any branch that has no specific entry
var fieldAccessors = map[string]extractor{
	"foundedYear":   firstOf(at("foundedYear"), at("founded"), at("yearFounded"), at("founding", "year")),
	"employeeCount": firstOf(at("employeeCount"), at("employees"), at("headcount"), at("team", "employeeCount")),
	"headquarters":  cityOf(firstOf(at("headquarters"), at("hq"), at("location"))),
	"sectors":       firstOf(at("sectors"), at("industries"), at("sector"), at("industry")),
	"totalRaised":   firstOf(at("totalRaised"), at("funding", "totalRaised"), at("financials", "totalRaised")),
	"fundingStage":  firstOf(at("fundingStage"), at("stage"), at("funding", "stage"), at("lastRound", "stage")),
	"teamSize":      firstOf(at("teamSize"), at("team", "size"), lengthOf(at("team", "members"))),
	"founders":      firstOf(at("founders"), at("team", "founders")),
	"revenue":       firstOf(at("revenue"), at("financials", "revenue"), at("arr")),
	"valuation":     firstOf(at("valuation"), at("lastValuation"), at("funding", "valuation")),
	"investors":     firstOf(at("investors"), at("funding", "investors")),
	"leadInvestor":  firstOf(at("leadInvestor"), at("lastRound", "leadInvestor"), at("funding", "leadInvestor")),
	"lastRoundDate": firstOf(at("lastRoundDate"), at("lastRound", "date"), at("funding", "lastRoundDate")),
	"competitors":   firstOf(at("competitors"), at("competition", "competitors")),
	"marketSize":    firstOf(at("marketSize"), at("tam"), at("market", "size")),
	"techStack":     firstOf(at("techStack"), at("technologies"), at("stack")),
	"legalName":     firstOf(at("legalName"), at("registeredName"), at("entity", "legalName")),
}

type accessorKey struct {
	branch model.BranchType
	field  string
}

// branchAccessors override fieldAccessors for one branch type
var branchAccessors = map[accessorKey]extractor{
	{model.BranchTeamFounders, "teamSize"}: firstOf(
		at("teamSize"), lengthOf(at("founders")), lengthOf(at("team")), lengthOf(at("team", "members")),
	),
	{model.BranchTeamFounders, "employeeCount"}: firstOf(
		at("employeeCount"), at("totalEmployees"), at("team", "employeeCount"),
	),
	{model.BranchFinancialDeep, "fundingStage"}: firstOf(
		at("fundingStage"), at("lastRound", "stage"), at("stage"), at("funding", "stage"),
	),
	{model.BranchFinancialDeep, "totalRaised"}: firstOf(
		at("totalRaised"), at("totalFunding"), at("funding", "totalRaised"),
	),
	{model.BranchRegulatory, "headquarters"}: cityOf(firstOf(
		at("registeredAddress"), at("headquarters"), at("jurisdiction"),
	)),
	{model.BranchNetworkMapping, "investors"}: firstOf(
		at("investors"), at("connections", "investors"),
	),
	{model.BranchMarketCompetitive, "sectors"}: firstOf(
		at("sectors"), at("marketSegments"), at("industry"),
	),
}

// extract reads field from a branch's findings; unknown shapes are absent
func extract(branch model.BranchType, field string, findings map[string]any) (any, bool) {
	if findings == nil {
		return nil, false
	}
	if ex, ok := branchAccessors[accessorKey{branch, field}]; ok {
		return ex(findings)
	}
	if ex, ok := fieldAccessors[field]; ok {
		return ex(findings)
	}
	return at(field)(findings)
}
