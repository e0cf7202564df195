// Package classify assigns reliability tiers and scores to evidence sources.
package classify

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/ppiankov/corroborate/internal/logging"
	"github.com/ppiankov/corroborate/internal/model"
)

// Blend weights for the final score
const (
	weightDomain    = 0.4
	weightFreshness = 0.3
	weightMetadata  = 0.2
	weightCitation  = 0.1
)

// Metadata is optional context about a source beyond its URL
type Metadata struct {
	PublishedAt      *time.Time
	AccessedAt       *time.Time
	HasTitle         bool
	HasAuthor        bool
	HasPublisher     bool
	CitationComplete bool
}

// Breakdown exposes every input of the blended score
type Breakdown struct {
	DomainScore    float64 `json:"domain_score"`
	FreshnessScore float64 `json:"freshness_score"`
	MetadataScore  float64 `json:"metadata_score"`
	CitationScore  float64 `json:"citation_score"`
	Blended        float64 `json:"blended"`
	Formula        string  `json:"formula"`
}

// Classification is the classifier's verdict on one source
type Classification struct {
	URL          string           `json:"url"`
	Domain       string           `json:"domain,omitempty"`
	Tier         model.SourceTier `json:"tier"`
	Score        float64          `json:"score"`
	Confidence   float64          `json:"confidence"`
	MatchedRules []string         `json:"matched_rules,omitempty"`
	Breakdown    Breakdown        `json:"breakdown"`
	AgeDays      *float64         `json:"age_days,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Reliability maps the tier onto the citation-level scale
func (c Classification) Reliability() model.Reliability {
	return model.ReliabilityForTier(c.Tier)
}

// Matched reports whether any rule recognised the source
func (c Classification) Matched() bool {
	return len(c.MatchedRules) > 0
}

// Classifier classifies sources into reliability tiers.
// It holds no mutable state after construction and is safe for concurrent use.
type Classifier struct {
	config *model.ClassifierConfig
	rules  []*compiledRule
	now    func() time.Time
}

type compiledRule struct {
	rule     model.SourceRule
	patterns []*regexp.Regexp
	domains  []string
}

// Option customises a Classifier
type Option func(*Classifier)

// WithClock overrides the time source used for age calculations
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// NewClassifier creates a new classifier. Rules with invalid regex patterns keep
// their valid patterns and domains; the broken pattern is skipped and logged.
func NewClassifier(config *model.ClassifierConfig, logger *zap.Logger, opts ...Option) *Classifier {
	if config == nil {
		config = &model.DefaultConfig().Classifier
	}
	logger = logging.OrNop(logger)

	classifier := &Classifier{
		config: config,
		rules:  make([]*compiledRule, 0, len(config.Rules)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(classifier)
	}

	for _, rule := range config.Rules {
		cr := &compiledRule{rule: rule}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				logger.Warn("skipping invalid rule pattern",
					zap.String("rule", rule.Name),
					zap.String("pattern", pattern),
					zap.Error(err))
				continue
			}
			cr.patterns = append(cr.patterns, re)
		}
		for _, domain := range rule.Domains {
			cr.domains = append(cr.domains, strings.ToLower(strings.TrimSpace(domain)))
		}
		if _, ok := model.TierScoreRanges[rule.Tier]; !ok {
			logger.Warn("skipping rule with unknown tier",
				zap.String("rule", rule.Name),
				zap.Int("tier", int(rule.Tier)))
			continue
		}
		classifier.rules = append(classifier.rules, cr)
	}

	// Highest priority first; config order breaks ties
	sort.SliceStable(classifier.rules, func(i, j int) bool {
		return classifier.rules[i].rule.Priority > classifier.rules[j].rule.Priority
	})

	return classifier
}

// Classify classifies a URL with optional metadata
func (c *Classifier) Classify(rawURL string, meta *Metadata) Classification {
	result := Classification{URL: rawURL}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		if err == nil {
			err = fmt.Errorf("missing host")
		}
		result.Error = fmt.Sprintf("invalid URL: %v", err)
		return c.unmatched(result)
	}

	host := strings.ToLower(parsed.Hostname())
	result.Domain = registrableDomain(host)

	var primary *compiledRule
	for _, cr := range c.rules {
		if cr.matches(host, rawURL) {
			if primary == nil {
				primary = cr
			}
			result.MatchedRules = append(result.MatchedRules, cr.rule.Name)
		}
	}

	if primary == nil {
		return c.unmatched(result)
	}

	rule := primary.rule
	ageDays := c.ageDays(meta)
	result.AgeDays = ageDays

	freshness := c.config.UnknownAgeFreshness
	if ageDays != nil {
		freshness = FreshnessScore(*ageDays, rule.MaxAgeDays, rule.DecayPerDay)
	}

	breakdown := Breakdown{
		DomainScore:    rule.BaseScore,
		FreshnessScore: freshness,
		MetadataScore:  metadataScore(meta),
		CitationScore:  citationScore(meta),
		Formula:        "clamp(domain*0.4 + freshness*0.3 + metadata*0.2 + citation*0.1, tier_range)",
	}
	breakdown.Blended = breakdown.DomainScore*weightDomain +
		breakdown.FreshnessScore*weightFreshness +
		breakdown.MetadataScore*weightMetadata +
		breakdown.CitationScore*weightCitation

	result.Tier = rule.Tier
	result.Score = model.TierScoreRanges[rule.Tier].Clamp(breakdown.Blended)
	result.Breakdown = breakdown
	result.Confidence = confidenceFor(len(result.MatchedRules))

	return result
}

// unmatched fills the lowest-tier default
func (c *Classifier) unmatched(result Classification) Classification {
	result.Tier = model.TierUnverified
	result.Score = model.TierScoreRanges[model.TierUnverified].Clamp(c.config.DefaultScore)
	result.Confidence = c.config.DefaultConfidence
	result.Breakdown = Breakdown{
		Blended: result.Score,
		Formula: "no rule matched: fixed default score",
	}
	return result
}

// ageDays returns the source age from its publish date, else its access date
func (c *Classifier) ageDays(meta *Metadata) *float64 {
	if meta == nil {
		return nil
	}
	ref := meta.PublishedAt
	if ref == nil {
		ref = meta.AccessedAt
	}
	if ref == nil {
		return nil
	}
	days := c.now().Sub(*ref).Hours() / 24
	if days < 0 {
		days = 0
	}
	return &days
}

func (cr *compiledRule) matches(host, rawURL string) bool {
	for _, domain := range cr.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	for _, re := range cr.patterns {
		if re.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// registrableDomain reduces a host to eTLD+1 (e.g. www.sec.gov -> sec.gov)
func registrableDomain(host string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// metadataScore is the share of identifying fields present, 0-100
func metadataScore(meta *Metadata) float64 {
	if meta == nil {
		return 0
	}
	present := 0
	for _, ok := range []bool{meta.HasTitle, meta.HasAuthor, meta.HasPublisher, meta.PublishedAt != nil} {
		if ok {
			present++
		}
	}
	return float64(present) / 4 * 100
}

func citationScore(meta *Metadata) float64 {
	if meta != nil && meta.CitationComplete {
		return 100
	}
	return 0
}

// confidenceFor grows with the number of agreeing rules
func confidenceFor(matched int) float64 {
	conf := 0.5 + 0.2*float64(matched)
	if conf > 1.0 {
		return 1.0
	}
	return conf
}
