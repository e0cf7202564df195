// Package crosscheck compares independent research branches field by field and
// resolves the disagreements it finds.
package crosscheck

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/corroborate/internal/classify"
	"github.com/ppiankov/corroborate/internal/model"
)

// CrossChecker is stateless after construction and safe for concurrent use
type CrossChecker struct {
	tables     *Tables
	config     model.CrossCheckConfig
	classifier *classify.Classifier
	synonyms   synonymIndex
	bothValid  map[string]bool
}

// Option customises a CrossChecker
type Option func(*CrossChecker)

// WithTables replaces the built-in comparison data
func WithTables(t *Tables) Option {
	return func(c *CrossChecker) { c.tables = t }
}

// New creates a cross-checker. The classifier grades branch sources that carry
// no declared reliability; without one they count as inferred.
func New(config *model.CrossCheckConfig, classifier *classify.Classifier, opts ...Option) *CrossChecker {
	if config == nil {
		config = &model.DefaultConfig().CrossCheck
	}
	c := &CrossChecker{
		tables:     DefaultTables(),
		config:     *config,
		classifier: classifier,
		bothValid:  make(map[string]bool, len(config.BothValidFields)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.synonyms = buildSynonymIndex(c.tables.SynonymGroups)
	for _, f := range config.BothValidFields {
		c.bothValid[f] = true
	}
	return c
}

// CheckAll compares every unordered pair of branches with findings
func (c *CrossChecker) CheckAll(branches []model.BranchFinding) model.CrossCheckSuite {
	var usable []model.BranchFinding
	for _, b := range branches {
		if len(b.Findings) > 0 {
			usable = append(usable, b)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return branchRank(usable[i].BranchType) < branchRank(usable[j].BranchType)
	})

	suite := model.CrossCheckSuite{Results: []model.CrossCheckResult{}, OverallAgreement: 1.0}
	sum := 0.0
	for i := 0; i < len(usable); i++ {
		for j := i + 1; j < len(usable); j++ {
			result := c.Compare(usable[i], usable[j])
			suite.Results = append(suite.Results, result)
			sum += result.OverallAgreement
			for _, d := range result.Disagreements {
				suite.Contradictions++
				switch d.Resolution {
				case model.ResolvedToA, model.ResolvedToB:
					suite.Resolved++
				case model.BothValid:
					suite.BothValid++
				default:
					suite.Unresolved++
				}
			}
		}
	}
	if len(suite.Results) > 0 {
		suite.OverallAgreement = sum / float64(len(suite.Results))
	}
	return suite
}

// Compare checks one branch pair. The result is the same whichever order the
// branches are passed in.
func (c *CrossChecker) Compare(a, b model.BranchFinding) model.CrossCheckResult {
	if branchRank(b.BranchType) < branchRank(a.BranchType) {
		a, b = b, a
	}

	result := model.CrossCheckResult{
		BranchA:       a.BranchType,
		BranchB:       b.BranchType,
		Agreements:    []model.Agreement{},
		Disagreements: []model.Contradiction{},
	}

	for _, field := range c.tables.fieldsFor(a.BranchType, b.BranchType) {
		va, okA := extract(a.BranchType, field, a.Findings)
		vb, okB := extract(b.BranchType, field, b.Findings)
		if !okA || !okB {
			continue
		}

		if c.Match(field, va, vb) {
			result.Agreements = append(result.Agreements, model.Agreement{Field: field, ValueA: va, ValueB: vb})
			continue
		}
		result.Disagreements = append(result.Disagreements, c.Resolve(field, a, b, va, vb))
	}

	total := len(result.Agreements) + len(result.Disagreements)
	result.OverallAgreement = 1.0
	if total > 0 {
		result.OverallAgreement = float64(len(result.Agreements)) / float64(total)
	}
	return result
}

// Match compares two values of one field with the field's tolerance
func (c *CrossChecker) Match(field string, a, b any) bool {
	if c.tables.MoneyFields[field] {
		ma, okA := asMillions(a)
		mb, okB := asMillions(b)
		if okA && okB {
			return withinTolerance(ma, mb, c.tables.tolerance(field))
		}
	}

	if na, okA := asNumber(a); okA {
		if nb, okB := asNumber(b); okB {
			return withinTolerance(na, nb, c.tables.tolerance(field))
		}
	}

	la, listA := asList(a)
	lb, listB := asList(b)
	if listA || listB {
		if !listA {
			la = []any{a}
		}
		if !listB {
			lb = []any{b}
		}
		return overlap(c.synonyms.listKeys(la), c.synonyms.listKeys(lb)) >= c.arrayOverlap()
	}

	_, objA := asObject(a)
	_, objB := asObject(b)
	if objA || objB {
		return false
	}

	return c.synonyms.stringsMatch(fmt.Sprint(a), fmt.Sprint(b))
}

func (c *CrossChecker) arrayOverlap() float64 {
	if c.config.ArrayOverlap <= 0 {
		return 0.5
	}
	return c.config.ArrayOverlap
}

// Resolve settles one mismatch. Identical inputs always yield the same
// resolution and reason.
func (c *CrossChecker) Resolve(field string, a, b model.BranchFinding, va, vb any) model.Contradiction {
	confA, confB := c.confidence(a), c.confidence(b)
	scoreA := c.SourceReliability(a) * c.tables.authority(a.BranchType, field) * confA
	scoreB := c.SourceReliability(b) * c.tables.authority(b.BranchType, field) * confB
	gap := math.Abs(scoreA - scoreB)

	contradiction := model.Contradiction{
		Field:       field,
		SourceA:     a.BranchType,
		ValueA:      va,
		SourceB:     b.BranchType,
		ValueB:      vb,
		ConfidenceA: &confA,
		ConfidenceB: &confB,
	}

	switch {
	case gap > c.config.ResolutionGap && scoreA > scoreB:
		contradiction.Resolution = model.ResolvedToA
		contradiction.ResolutionReason = fmt.Sprintf("%s is more authoritative for %s (score %.2f vs %.2f, %.0f%% gap)",
			a.BranchType, field, scoreA, scoreB, gap*100)
	case gap > c.config.ResolutionGap:
		contradiction.Resolution = model.ResolvedToB
		contradiction.ResolutionReason = fmt.Sprintf("%s is more authoritative for %s (score %.2f vs %.2f, %.0f%% gap)",
			b.BranchType, field, scoreB, scoreA, gap*100)
	case c.bothValid[field]:
		contradiction.Resolution = model.BothValid
		contradiction.ResolutionReason = fmt.Sprintf("%s changes over time; both values may be correct at different dates (%.0f%% gap)",
			field, gap*100)
	default:
		contradiction.Resolution = model.Unresolved
		contradiction.ResolutionReason = fmt.Sprintf("evidence does not favour either branch for %s (%.0f%% gap, need more than %.0f%%)",
			field, gap*100, c.config.ResolutionGap*100)
	}
	return contradiction
}

func (c *CrossChecker) confidence(b model.BranchFinding) float64 {
	if b.Confidence != nil {
		return math.Max(0, math.Min(1, *b.Confidence))
	}
	return c.config.DefaultConfidence
}

// SourceReliability is the mean reliability weight of a branch's sources
func (c *CrossChecker) SourceReliability(b model.BranchFinding) float64 {
	if len(b.Sources) == 0 {
		return c.tables.NoSourceReliability
	}
	total := 0.0
	for _, src := range b.Sources {
		w, ok := c.tables.ReliabilityWeights[c.sourceReliability(src)]
		if !ok {
			w = c.tables.NoSourceReliability
		}
		total += w
	}
	return total / float64(len(b.Sources))
}

// sourceReliability uses the declared label, else the classifier tier
func (c *CrossChecker) sourceReliability(src model.SourceRef) model.Reliability {
	if src.Reliability != "" {
		return src.Reliability
	}
	if c.classifier == nil || src.URL == "" {
		return model.ReliabilityInferred
	}
	switch c.classifier.Classify(src.URL, nil).Tier {
	case model.TierAuthoritative:
		return model.ReliabilityAuthoritative
	case model.TierReliable:
		return model.ReliabilityReliable
	case model.TierSecondary:
		return model.ReliabilitySecondary
	default:
		return model.ReliabilityInferred
	}
}
