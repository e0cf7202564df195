package model

import "time"

// SourceTier is the classifier-level reliability tier (1 = most authoritative)
type SourceTier int

const (
	TierUnknown       SourceTier = 0
	TierAuthoritative SourceTier = 1 // Regulatory filings, government registries, court records
	TierReliable      SourceTier = 2 // Major financial press, established data providers
	TierSecondary     SourceTier = 3 // Trade press, encyclopedias, company-controlled pages
	TierLowQuality    SourceTier = 4 // Blogs, forums, social media
	TierUnverified    SourceTier = 5 // Anything no rule recognises
)

func (t SourceTier) String() string {
	switch t {
	case TierAuthoritative:
		return "tier1_authoritative"
	case TierReliable:
		return "tier2_reliable"
	case TierSecondary:
		return "tier3_secondary"
	case TierLowQuality:
		return "tier4_low_quality"
	case TierUnverified:
		return "tier5_unverified"
	default:
		return "unknown"
	}
}

// ScoreRange is the inclusive score band owned by a tier
type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether score falls inside the range
func (r ScoreRange) Contains(score float64) bool {
	return score >= r.Min && score <= r.Max
}

// Clamp forces score into the range
func (r ScoreRange) Clamp(score float64) float64 {
	if score < r.Min {
		return r.Min
	}
	if score > r.Max {
		return r.Max
	}
	return score
}

// TierScoreRanges maps each tier to its disjoint score band
var TierScoreRanges = map[SourceTier]ScoreRange{
	TierAuthoritative: {Min: 95, Max: 100},
	TierReliable:      {Min: 80, Max: 94},
	TierSecondary:     {Min: 60, Max: 79},
	TierLowQuality:    {Min: 40, Max: 59},
	TierUnverified:    {Min: 0, Max: 39},
}

// Reliability is the citation-level reliability class
type Reliability string

const (
	ReliabilityAuthoritative Reliability = "authoritative"
	ReliabilityReliable      Reliability = "reliable"
	ReliabilitySecondary     Reliability = "secondary"
	ReliabilityUnverified    Reliability = "unverified"
	// ReliabilityInferred only appears on branch sources, never on citations
	ReliabilityInferred Reliability = "inferred"
)

// Rank orders reliabilities for sorting (higher is better)
func (r Reliability) Rank() int {
	switch r {
	case ReliabilityAuthoritative:
		return 4
	case ReliabilityReliable:
		return 3
	case ReliabilitySecondary:
		return 2
	case ReliabilityUnverified:
		return 1
	default:
		return 0
	}
}

// ReliabilityForTier maps a classifier tier onto the citation-level scale
func ReliabilityForTier(t SourceTier) Reliability {
	switch t {
	case TierAuthoritative:
		return ReliabilityAuthoritative
	case TierReliable:
		return ReliabilityReliable
	case TierSecondary:
		return ReliabilitySecondary
	default:
		return ReliabilityUnverified
	}
}

// SourceType describes what kind of document a citation points at
type SourceType string

const (
	SourceTypeRegulatoryFiling SourceType = "regulatory_filing"
	SourceTypeGovernment       SourceType = "government"
	SourceTypeNews             SourceType = "news_article"
	SourceTypePressRelease     SourceType = "press_release"
	SourceTypeCompanyWebsite   SourceType = "company_website"
	SourceTypeDatabase         SourceType = "database"
	SourceTypeAcademic         SourceType = "academic"
	SourceTypeSocial           SourceType = "social_media"
	SourceTypeBlog             SourceType = "blog"
	SourceTypeOther            SourceType = "other"
)

// SourceCitation is an immutable, dated reference to a piece of evidence
type SourceCitation struct {
	ID               string      `json:"id"`
	SourceType       SourceType  `json:"source_type"`
	URL              string      `json:"url"`
	Title            string      `json:"title,omitempty"`
	AccessedAt       time.Time   `json:"accessed_at"`
	PublishedAt      *time.Time  `json:"published_at,omitempty"`
	ArchivedURL      string      `json:"archived_url,omitempty"`
	Reliability      Reliability `json:"reliability"`
	ExtractedSnippet string      `json:"extracted_snippet,omitempty"`
	ExtractionMethod string      `json:"extraction_method"`
	ExpiresAt        time.Time   `json:"expires_at"`
}

// RecencyTime is the publish date when known, otherwise the access date
func (c SourceCitation) RecencyTime() time.Time {
	if c.PublishedAt != nil {
		return *c.PublishedAt
	}
	return c.AccessedAt
}

// SourceRef is a raw source reference as declared by a research agent
type SourceRef struct {
	URL         string      `json:"url" yaml:"url"`
	Title       string      `json:"title,omitempty" yaml:"title,omitempty"`
	PublishedAt any         `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"` // epoch millis, ISO string or time
	Reliability Reliability `json:"reliability,omitempty" yaml:"reliability,omitempty"`
	SourceType  SourceType  `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`
	Snippet     string      `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}
