// Package score grades a ledger's integrity and explains the grade with signals.
package score

import (
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

// Integrity thresholds on the unverifiable-claim ratio
const (
	lowIntegrityRatio    = 0.5
	mediumIntegrityRatio = 0.3
)

// Integrity grades a ledger: low when unverifiable claims exceed half, medium
// when they exceed 30% or any contradiction exists, else high.
func Integrity(total, unverifiable, contradictions int) model.Integrity {
	if total > 0 {
		ratio := float64(unverifiable) / float64(total)
		if ratio > lowIntegrityRatio {
			return model.IntegrityLow
		}
		if ratio > mediumIntegrityRatio {
			return model.IntegrityMedium
		}
	}
	if contradictions > 0 {
		return model.IntegrityMedium
	}
	return model.IntegrityHigh
}

// Assessment is the scored outcome of one research run
type Assessment struct {
	Index      int             `json:"index"`
	Integrity  model.Integrity `json:"integrity"`
	Confidence string          `json:"confidence"`
	Signals    []model.Signal  `json:"signals"`
}

// Scorer calculates the support index and generates signals
type Scorer struct {
	now func() time.Time
}

// Option customises a Scorer
type Option func(*Scorer)

// WithClock sets the reference time for source ages
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a new scorer
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate scores the exported claims plus an optional cross-check suite
func (s *Scorer) Calculate(claims []model.Claim, suite *model.CrossCheckSuite) Assessment {
	var signals []model.Signal

	// 1. Verification (0-20 points)
	verifiedScore, unverifiable, verificationSignal := s.calculateVerification(claims)
	signals = append(signals, verificationSignal)

	// 2. Citation coverage (0-30 points)
	coverageScore, coverageSignal := s.calculateCoverage(claims)
	signals = append(signals, coverageSignal)

	// 3. Primary sources (0-30 points)
	primaryScore, primarySignal := s.calculatePrimarySources(claims)
	signals = append(signals, primarySignal)

	// 4. Freshness (0-20 points)
	freshnessScore, freshnessSignal := s.calculateFreshness(claims)
	signals = append(signals, freshnessSignal)

	// 5. Contradictions (informational, feeds integrity)
	contradictions, contradictionSignal := s.countContradictions(claims)
	if contradictions > 0 {
		signals = append(signals, contradictionSignal)
	}

	// 6. Branch agreement and unresolved conflicts (penalty)
	unresolved := 0
	if suite != nil && len(suite.Results) > 0 {
		signals = append(signals, s.branchAgreement(suite))
		unresolved = suite.Unresolved
		if unresolved > 0 {
			signals = append(signals, model.Signal{
				Type:        model.SignalUnresolvedConflicts,
				Severity:    model.SeverityWarning,
				Description: fmt.Sprintf("%d cross-branch contradictions could not be resolved", unresolved),
				Data: map[string]any{
					"unresolved": unresolved,
					"total":      suite.Contradictions,
					"penalty":    10,
				},
			})
		}
	}

	total := verifiedScore + coverageScore + primaryScore + freshnessScore
	if unresolved > 0 {
		total -= 10
		if total < 0 {
			total = 0
		}
	}

	return Assessment{
		Index:      total,
		Integrity:  Integrity(len(claims), unverifiable, contradictions),
		Confidence: s.determineConfidence(total, len(claims), unresolved > 0),
		Signals:    signals,
	}
}

// calculateVerification scores the verified share of claims (0-20 points)
func (s *Scorer) calculateVerification(claims []model.Claim) (int, int, model.Signal) {
	if len(claims) == 0 {
		return 0, 0, model.Signal{
			Type:        model.SignalUnverifiable,
			Severity:    model.SeverityCritical,
			Description: "No claims in ledger",
			Data:        map[string]any{"claims": 0},
		}
	}

	verified, unverifiable := 0, 0
	for _, c := range claims {
		switch c.Verdict {
		case model.VerdictVerified:
			verified++
		case model.VerdictUnverifiable:
			unverifiable++
		}
	}

	ratio := float64(unverifiable) / float64(len(claims))
	score := int(float64(verified) / float64(len(claims)) * 20)

	severity := model.SeverityInfo
	if ratio > lowIntegrityRatio {
		severity = model.SeverityCritical
	} else if ratio > mediumIntegrityRatio {
		severity = model.SeverityWarning
	}

	return score, unverifiable, model.Signal{
		Type:        model.SignalUnverifiable,
		Severity:    severity,
		Description: fmt.Sprintf("Unverifiable claims: %d/%d (%.0f%%)", unverifiable, len(claims), ratio*100),
		Data: map[string]any{
			"verified":     verified,
			"unverifiable": unverifiable,
			"total":        len(claims),
			"ratio":        ratio,
			"score":        score,
			"formula":      "verified_count / claim_count * 20",
		},
	}
}

// calculateCoverage scores the share of claims backed by any citation (0-30 points)
func (s *Scorer) calculateCoverage(claims []model.Claim) (int, model.Signal) {
	if len(claims) == 0 {
		return 0, model.Signal{
			Type:        model.SignalCitationCoverage,
			Severity:    model.SeverityWarning,
			Description: "No claims to cover",
			Data:        map[string]any{"claims": 0},
		}
	}

	cited := 0
	for _, c := range claims {
		if len(c.Citations) > 0 {
			cited++
		}
	}

	ratio := float64(cited) / float64(len(claims))
	score := int(ratio * 30)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 1.0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalCitationCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Cited claims: %d/%d", cited, len(claims)),
		Data: map[string]any{
			"cited":   cited,
			"total":   len(claims),
			"ratio":   ratio,
			"score":   score,
			"formula": "cited_claims / claim_count * 30",
		},
	}
}

// calculatePrimarySources scores the reliability mix of all citations (0-30 points)
func (s *Scorer) calculatePrimarySources(claims []model.Claim) (int, model.Signal) {
	counts := make(map[model.Reliability]int)
	total := 0
	for _, c := range claims {
		for _, cit := range c.Citations {
			counts[cit.Reliability]++
			total++
		}
	}

	if total == 0 {
		return 0, model.Signal{
			Type:        model.SignalPrimarySources,
			Severity:    model.SeverityWarning,
			Description: "No citations available",
			Data:        map[string]any{"citations": 0},
		}
	}

	authoritative := counts[model.ReliabilityAuthoritative]
	reliable := counts[model.ReliabilityReliable]
	secondary := counts[model.ReliabilitySecondary]

	weightedSum := float64(authoritative*3 + reliable*2 + secondary)
	score := int(weightedSum / float64(total*3) * 30)

	severity := model.SeverityInfo
	if authoritative+reliable == 0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:     model.SignalPrimarySources,
		Severity: severity,
		Description: fmt.Sprintf("Source mix: %d authoritative, %d reliable, %d secondary, %d unverified",
			authoritative, reliable, secondary, counts[model.ReliabilityUnverified]),
		Data: map[string]any{
			"authoritative": authoritative,
			"reliable":      reliable,
			"secondary":     secondary,
			"unverified":    counts[model.ReliabilityUnverified],
			"total":         total,
			"score":         score,
			"formula":       "(authoritative*3 + reliable*2 + secondary*1) / (total*3) * 30",
		},
	}
}

// calculateFreshness scores the median citation age (0-20 points)
func (s *Scorer) calculateFreshness(claims []model.Claim) (int, model.Signal) {
	now := s.now()
	var ages []int
	for _, c := range claims {
		for _, cit := range c.Citations {
			if cit.PublishedAt != nil {
				ages = append(ages, int(now.Sub(*cit.PublishedAt).Hours()/24))
			}
		}
	}

	if len(ages) == 0 {
		return 10, model.Signal{
			Type:        model.SignalFreshness,
			Severity:    model.SeverityInfo,
			Description: "No publish dates available (assuming moderate)",
			Data:        map[string]any{"samples": 0, "score": 10},
		}
	}

	sort.Ints(ages)
	medianAge := ages[len(ages)/2]
	medianAgeYears := float64(medianAge) / 365.0

	score := 20 - int(medianAgeYears*5)
	if score < 0 {
		score = 0
	}
	if score > 20 {
		score = 20
	}

	severity := model.SeverityInfo
	if medianAgeYears > 3 {
		severity = model.SeverityCritical
	} else if medianAgeYears > 1 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalFreshness,
		Severity:    severity,
		Description: fmt.Sprintf("Median source age: %.1f years", medianAgeYears),
		Data: map[string]any{
			"median_age_days":  medianAge,
			"median_age_years": medianAgeYears,
			"samples":          len(ages),
			"score":            score,
			"formula":          "20 - min(median_age_years * 5, 20)",
		},
	}
}

// countContradictions totals contradiction notes across claims
func (s *Scorer) countContradictions(claims []model.Claim) (int, model.Signal) {
	count, disputed := 0, 0
	for _, c := range claims {
		count += len(c.Contradictions)
		if c.Verdict == model.VerdictDisputed {
			disputed++
		}
	}

	return count, model.Signal{
		Type:        model.SignalContradictions,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d contradictions recorded across %d disputed claims", count, disputed),
		Data: map[string]any{
			"contradictions": count,
			"disputed":       disputed,
		},
	}
}

func (s *Scorer) branchAgreement(suite *model.CrossCheckSuite) model.Signal {
	severity := model.SeverityInfo
	if suite.OverallAgreement < 0.5 {
		severity = model.SeverityCritical
	} else if suite.OverallAgreement < 0.8 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalBranchAgreement,
		Severity:    severity,
		Description: fmt.Sprintf("Branch agreement: %.0f%% across %d pairs", suite.OverallAgreement*100, len(suite.Results)),
		Data: map[string]any{
			"pairs":          len(suite.Results),
			"agreement":      suite.OverallAgreement,
			"contradictions": suite.Contradictions,
			"resolved":       suite.Resolved,
			"both_valid":     suite.BothValid,
			"unresolved":     suite.Unresolved,
			"formula":        "mean(agreements / (agreements + disagreements)) over branch pairs",
		},
	}
}

// determineConfidence determines the confidence level based on the score
func (s *Scorer) determineConfidence(score, claimCount int, conflict bool) string {
	if conflict {
		return "low-medium"
	}

	if claimCount < 3 {
		return "low"
	}

	if score >= 80 {
		return "high"
	} else if score >= 60 {
		return "medium"
	}
	return "low"
}
