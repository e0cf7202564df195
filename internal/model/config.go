package model

import "time"

// Config is the complete corroborate configuration
type Config struct {
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Citation   CitationConfig   `yaml:"citation" mapstructure:"citation"`
	Ledger     LedgerConfig     `yaml:"ledger" mapstructure:"ledger"`
	CrossCheck CrossCheckConfig `yaml:"crosscheck" mapstructure:"crosscheck"`
	Judge      JudgeConfig      `yaml:"judge" mapstructure:"judge"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// SourceRule maps URL patterns or domains onto a tier with a freshness policy
type SourceRule struct {
	Name        string     `yaml:"name" mapstructure:"name"`
	Priority    int        `yaml:"priority" mapstructure:"priority"`
	Patterns    []string   `yaml:"patterns,omitempty" mapstructure:"patterns"`
	Domains     []string   `yaml:"domains,omitempty" mapstructure:"domains"`
	Tier        SourceTier `yaml:"tier" mapstructure:"tier"`
	BaseScore   float64    `yaml:"base_score" mapstructure:"base_score"`
	MaxAgeDays  float64    `yaml:"max_age_days" mapstructure:"max_age_days"`
	DecayPerDay float64    `yaml:"decay_per_day" mapstructure:"decay_per_day"`
}

// ClassifierConfig configures the source classifier
type ClassifierConfig struct {
	Rules               []SourceRule `yaml:"rules" mapstructure:"rules"`
	DefaultScore        float64      `yaml:"default_score" mapstructure:"default_score"`
	DefaultConfidence   float64      `yaml:"default_confidence" mapstructure:"default_confidence"`
	UnknownAgeFreshness float64      `yaml:"unknown_age_freshness" mapstructure:"unknown_age_freshness"`
}

// CitationConfig configures the citation manager
type CitationConfig struct {
	ExpiryDays  int  `yaml:"expiry_days" mapstructure:"expiry_days"`
	AutoArchive bool `yaml:"auto_archive" mapstructure:"auto_archive"`
}

// LedgerConfig configures the claim ledger
type LedgerConfig struct {
	SimilarityThreshold float64       `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MaxAge              time.Duration `yaml:"max_age" mapstructure:"max_age"`
	MaxDedupeClaims     int           `yaml:"max_dedupe_claims" mapstructure:"max_dedupe_claims"`
}

// CrossCheckConfig configures contradiction resolution
type CrossCheckConfig struct {
	ResolutionGap     float64  `yaml:"resolution_gap" mapstructure:"resolution_gap"`
	BothValidFields   []string `yaml:"both_valid_fields" mapstructure:"both_valid_fields"`
	DefaultConfidence float64  `yaml:"default_confidence" mapstructure:"default_confidence"`
	ArrayOverlap      float64  `yaml:"array_overlap" mapstructure:"array_overlap"`
}

// JudgeConfig configures the optional judge overlay
type JudgeConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxConcurrency    int           `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	CallTimeout       time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	MinConfidence     float64       `yaml:"min_confidence" mapstructure:"min_confidence"`
	Weight            float64       `yaml:"weight" mapstructure:"weight"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// LLMConfig holds LLM provider configuration for the judge
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, google, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"` // never written to disk
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures the judge response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir,omitempty" mapstructure:"dir"` // empty = memory only
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Rules:               DefaultSourceRules(),
			DefaultScore:        20,
			DefaultConfidence:   0.5,
			UnknownAgeFreshness: 50,
		},
		Citation: CitationConfig{
			ExpiryDays: 90,
		},
		Ledger: LedgerConfig{
			SimilarityThreshold: 0.8,
			MaxAge:              30 * 24 * time.Hour,
			MaxDedupeClaims:     5000,
		},
		CrossCheck: CrossCheckConfig{
			ResolutionGap:     0.3,
			BothValidFields:   []string{"employeeCount", "teamSize", "totalRaised"},
			DefaultConfidence: 0.5,
			ArrayOverlap:      0.5,
		},
		Judge: JudgeConfig{
			Enabled:           false, // Disabled by default
			MaxConcurrency:    4,
			CallTimeout:       30 * time.Second,
			MinConfidence:     0.7,
			Weight:            0.5,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		LLM: LLMConfig{
			Timeout:     30,
			MaxTokens:   800,
			Temperature: 0.1,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultSourceRules returns the built-in classification rules, highest priority first
func DefaultSourceRules() []SourceRule {
	return []SourceRule{
		{
			Name:        "regulatory-filings",
			Priority:    100,
			Domains:     []string{"sec.gov", "efts.sec.gov", "fca.org.uk", "esma.europa.eu"},
			Patterns:    []string{`sec\.gov/(Archives|cgi-bin)/`},
			Tier:        TierAuthoritative,
			BaseScore:   100,
			MaxAgeDays:  365,
			DecayPerDay: 0.05,
		},
		{
			Name:        "government-registries",
			Priority:    95,
			Domains:     []string{"companieshouse.gov.uk", "find-and-update.company-information.service.gov.uk", "uspto.gov", "europa.eu"},
			Patterns:    []string{`^https?://([a-z0-9-]+\.)*[a-z0-9-]+\.gov(\.[a-z]{2})?(:\d+)?(/|$)`},
			Tier:        TierAuthoritative,
			BaseScore:   98,
			MaxAgeDays:  365,
			DecayPerDay: 0.05,
		},
		{
			Name:        "court-records",
			Priority:    90,
			Domains:     []string{"courtlistener.com", "pacer.uscourts.gov", "bailii.org"},
			Tier:        TierAuthoritative,
			BaseScore:   96,
			MaxAgeDays:  730,
			DecayPerDay: 0.02,
		},
		{
			Name:        "financial-press",
			Priority:    80,
			Domains:     []string{"reuters.com", "bloomberg.com", "wsj.com", "ft.com", "apnews.com", "economist.com"},
			Tier:        TierReliable,
			BaseScore:   90,
			MaxAgeDays:  180,
			DecayPerDay: 0.1,
		},
		{
			Name:        "data-providers",
			Priority:    75,
			Domains:     []string{"crunchbase.com", "pitchbook.com", "dnb.com", "cbinsights.com"},
			Tier:        TierReliable,
			BaseScore:   85,
			MaxAgeDays:  90,
			DecayPerDay: 0.15,
		},
		{
			Name:        "trade-press",
			Priority:    60,
			Domains:     []string{"techcrunch.com", "theinformation.com", "venturebeat.com", "wired.com", "forbes.com", "businessinsider.com", "cnbc.com"},
			Tier:        TierSecondary,
			BaseScore:   75,
			MaxAgeDays:  180,
			DecayPerDay: 0.1,
		},
		{
			Name:        "press-wires",
			Priority:    55,
			Domains:     []string{"prnewswire.com", "businesswire.com", "globenewswire.com"},
			Patterns:    []string{`/press(-releases?)?/`, `/newsroom/`},
			Tier:        TierSecondary,
			BaseScore:   65,
			MaxAgeDays:  120,
			DecayPerDay: 0.15,
		},
		{
			Name:        "reference-works",
			Priority:    50,
			Domains:     []string{"wikipedia.org", "britannica.com"},
			Tier:        TierSecondary,
			BaseScore:   62,
			MaxAgeDays:  365,
			DecayPerDay: 0.05,
		},
		{
			Name:        "professional-networks",
			Priority:    30,
			Domains:     []string{"linkedin.com", "wellfound.com", "angel.co"},
			Tier:        TierLowQuality,
			BaseScore:   55,
			MaxAgeDays:  90,
			DecayPerDay: 0.2,
		},
		{
			Name:        "social-and-blogs",
			Priority:    20,
			Domains:     []string{"medium.com", "substack.com", "reddit.com", "twitter.com", "x.com", "facebook.com", "quora.com", "news.ycombinator.com"},
			Patterns:    []string{`/blog/`},
			Tier:        TierLowQuality,
			BaseScore:   45,
			MaxAgeDays:  60,
			DecayPerDay: 0.25,
		},
	}
}
