package model

// RiskSeverity grades a risk signal raised during research
type RiskSeverity string

const (
	RiskLow      RiskSeverity = "low"
	RiskMedium   RiskSeverity = "medium"
	RiskHigh     RiskSeverity = "high"
	RiskCritical RiskSeverity = "critical"
)

// Valid reports whether s is one of the known severities
func (s RiskSeverity) Valid() bool {
	switch s {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// RiskSignal is a red flag raised by a research agent, open to judge review
type RiskSignal struct {
	ID          string       `json:"id,omitempty" yaml:"id,omitempty"`
	Category    string       `json:"category" yaml:"category"`
	Severity    RiskSeverity `json:"severity" yaml:"severity"`
	Description string       `json:"description" yaml:"description"`
	Confidence  float64      `json:"confidence" yaml:"confidence"`
	Evidence    []string     `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}
