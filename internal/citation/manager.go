// Package citation turns raw source references into dated, validated citations.
package citation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/corroborate/internal/classify"
	"github.com/ppiankov/corroborate/internal/model"
)

// ErrMissingURL is returned when a raw source carries no URL at all
var ErrMissingURL = errors.New("citation requires a url")

const defaultExtractionMethod = "declared"

// RawSource is a source reference as handed over by a fetcher or research agent
type RawSource struct {
	URL              string
	SourceType       model.SourceType
	Title            string
	PublishedAt      any // epoch millis, date string or time.Time
	Reliability      model.Reliability
	Snippet          string
	ExtractionMethod string
}

// FromRef adapts a declared branch or claim source
func FromRef(ref model.SourceRef) RawSource {
	return RawSource{
		URL:         ref.URL,
		SourceType:  ref.SourceType,
		Title:       ref.Title,
		PublishedAt: ref.PublishedAt,
		Reliability: ref.Reliability,
		Snippet:     ref.Snippet,
	}
}

// ruleSourceTypes infers a document kind from the classifier rule that matched
var ruleSourceTypes = map[string]model.SourceType{
	"regulatory-filings":    model.SourceTypeRegulatoryFiling,
	"government-registries": model.SourceTypeGovernment,
	"court-records":         model.SourceTypeGovernment,
	"financial-press":       model.SourceTypeNews,
	"trade-press":           model.SourceTypeNews,
	"data-providers":        model.SourceTypeDatabase,
	"press-wires":           model.SourceTypePressRelease,
	"reference-works":       model.SourceTypeOther,
	"professional-networks": model.SourceTypeSocial,
	"social-and-blogs":      model.SourceTypeBlog,
}

// typeReliability is the fallback when no classifier rule recognised the URL
var typeReliability = map[model.SourceType]model.Reliability{
	model.SourceTypeRegulatoryFiling: model.ReliabilityAuthoritative,
	model.SourceTypeGovernment:       model.ReliabilityAuthoritative,
	model.SourceTypeDatabase:         model.ReliabilityReliable,
	model.SourceTypeAcademic:         model.ReliabilityReliable,
	model.SourceTypeNews:             model.ReliabilitySecondary,
	model.SourceTypePressRelease:     model.ReliabilitySecondary,
	model.SourceTypeCompanyWebsite:   model.ReliabilitySecondary,
}

// Manager creates and validates citations
type Manager struct {
	config     *model.CitationConfig
	classifier *classify.Classifier
	now        func() time.Time
}

// Option customises a Manager
type Option func(*Manager)

// WithClock overrides the creation timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a citation manager. The classifier may be nil, in which
// case reliability comes from the source type alone.
func NewManager(config *model.CitationConfig, classifier *classify.Classifier, opts ...Option) *Manager {
	if config == nil {
		config = &model.DefaultConfig().Citation
	}
	m := &Manager{
		config:     config,
		classifier: classifier,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// New creates a dated citation. An unparseable publish date is dropped rather
// than failing the citation.
func (m *Manager) New(raw RawSource) (model.SourceCitation, error) {
	rawURL := strings.TrimSpace(raw.URL)
	if rawURL == "" {
		return model.SourceCitation{}, ErrMissingURL
	}

	now := m.now().UTC()
	citation := model.SourceCitation{
		ID:               uuid.NewString(),
		SourceType:       raw.SourceType,
		URL:              rawURL,
		Title:            strings.TrimSpace(raw.Title),
		AccessedAt:       now,
		Reliability:      raw.Reliability,
		ExtractedSnippet: raw.Snippet,
		ExtractionMethod: raw.ExtractionMethod,
		ExpiresAt:        now.AddDate(0, 0, m.expiryDays()),
	}
	if citation.ExtractionMethod == "" {
		citation.ExtractionMethod = defaultExtractionMethod
	}
	if published, ok := ParseDate(raw.PublishedAt); ok {
		citation.PublishedAt = &published
	}

	var classification *classify.Classification
	if m.classifier != nil {
		c := m.classifier.Classify(rawURL, &classify.Metadata{
			PublishedAt: citation.PublishedAt,
			AccessedAt:  &now,
			HasTitle:    citation.Title != "",
		})
		classification = &c
	}

	if citation.SourceType == "" {
		citation.SourceType = inferSourceType(classification)
	}
	if citation.Reliability == "" || citation.Reliability == model.ReliabilityInferred {
		citation.Reliability = defaultReliability(classification, citation.SourceType)
	}
	if m.config.AutoArchive {
		citation.ArchivedURL = ArchiveURL(rawURL, now)
	}

	return citation, nil
}

func (m *Manager) expiryDays() int {
	if m.config.ExpiryDays <= 0 {
		return 90
	}
	return m.config.ExpiryDays
}

// ArchiveURL is the Wayback Machine snapshot pointer for url at time t
func ArchiveURL(rawURL string, t time.Time) string {
	return fmt.Sprintf("https://web.archive.org/web/%s/%s", t.UTC().Format("20060102150405"), rawURL)
}

func inferSourceType(c *classify.Classification) model.SourceType {
	if c != nil {
		for _, rule := range c.MatchedRules {
			if st, ok := ruleSourceTypes[rule]; ok {
				return st
			}
		}
	}
	return model.SourceTypeOther
}

// defaultReliability prefers the classifier tier and falls back to the source type
func defaultReliability(c *classify.Classification, st model.SourceType) model.Reliability {
	if c != nil && c.Matched() {
		return c.Reliability()
	}
	if r, ok := typeReliability[st]; ok {
		return r
	}
	return model.ReliabilityUnverified
}

// Validation is the outcome of checking one citation
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks a citation. Every field is checked even after an error.
func (m *Manager) Validate(c model.SourceCitation) Validation {
	var v Validation

	if c.AccessedAt.IsZero() {
		v.Errors = append(v.Errors, "accessedAt is required")
	}
	if err := checkURL(c.URL); err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("invalid url %q: %v", c.URL, err))
	}
	if c.ID == "" {
		v.Warnings = append(v.Warnings, "citation has no id")
	}
	if c.PublishedAt == nil {
		v.Warnings = append(v.Warnings, "publish date unknown")
	}
	if c.ArchivedURL == "" {
		v.Warnings = append(v.Warnings, "no archived copy")
	}
	if m.IsExpired(c) {
		v.Warnings = append(v.Warnings, fmt.Sprintf("citation expired on %s", c.ExpiresAt.Format("2006-01-02")))
	}
	switch c.Reliability {
	case model.ReliabilityAuthoritative, model.ReliabilityReliable, model.ReliabilitySecondary, model.ReliabilityUnverified:
	default:
		v.Warnings = append(v.Warnings, fmt.Sprintf("unknown reliability %q", c.Reliability))
	}

	v.Valid = len(v.Errors) == 0
	return v
}

// IsExpired reports whether the citation is past its expiry date
func (m *Manager) IsExpired(c model.SourceCitation) bool {
	return !c.ExpiresAt.IsZero() && m.now().After(c.ExpiresAt)
}

func checkURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return errors.New("missing host")
	}
	return nil
}
