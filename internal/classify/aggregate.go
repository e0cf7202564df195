package classify

import (
	"fmt"

	"github.com/ppiankov/corroborate/internal/model"
)

// tierWeights rewards primary sources in the aggregate mean
var tierWeights = map[model.SourceTier]float64{
	model.TierAuthoritative: 3,
	model.TierReliable:      2,
	model.TierSecondary:     1.5,
}

// Concern thresholds
const (
	minPrimaryRatio    = 0.3
	maxUnverifiedRatio = 0.3
	minMeanConfidence  = 0.6
)

// Aggregate summarises every classification behind one claim
type Aggregate struct {
	Count              int                      `json:"count"`
	WeightedScore      float64                  `json:"weighted_score"`
	PrimarySourceRatio float64                  `json:"primary_source_ratio"`
	UnverifiedRatio    float64                  `json:"unverified_ratio"`
	MeanConfidence     float64                  `json:"mean_confidence"`
	TierCounts         map[model.SourceTier]int `json:"tier_counts"`
	Concerns           []string                 `json:"concerns,omitempty"`
}

// AggregateClassifications computes the tier-weighted view of several sources
func AggregateClassifications(classifications []Classification) Aggregate {
	agg := Aggregate{
		Count:      len(classifications),
		TierCounts: make(map[model.SourceTier]int),
	}
	if len(classifications) == 0 {
		agg.Concerns = []string{"no sources supplied"}
		return agg
	}

	var weightedSum, weightTotal, confidenceSum float64
	for _, c := range classifications {
		w, ok := tierWeights[c.Tier]
		if !ok {
			w = 1
		}
		weightedSum += c.Score * w
		weightTotal += w
		confidenceSum += c.Confidence
		agg.TierCounts[c.Tier]++
	}

	total := float64(len(classifications))
	agg.WeightedScore = weightedSum / weightTotal
	agg.PrimarySourceRatio = float64(agg.TierCounts[model.TierAuthoritative]+agg.TierCounts[model.TierReliable]) / total
	agg.UnverifiedRatio = float64(agg.TierCounts[model.TierUnverified]) / total
	agg.MeanConfidence = confidenceSum / total

	if agg.PrimarySourceRatio < minPrimaryRatio {
		agg.Concerns = append(agg.Concerns,
			fmt.Sprintf("low primary source ratio: %.0f%% (minimum %.0f%%)", agg.PrimarySourceRatio*100, minPrimaryRatio*100))
	}
	if agg.UnverifiedRatio > maxUnverifiedRatio {
		agg.Concerns = append(agg.Concerns,
			fmt.Sprintf("high unverified source ratio: %.0f%% (maximum %.0f%%)", agg.UnverifiedRatio*100, maxUnverifiedRatio*100))
	}
	if agg.MeanConfidence < minMeanConfidence {
		agg.Concerns = append(agg.Concerns,
			fmt.Sprintf("low classification confidence: %.2f", agg.MeanConfidence))
	}

	return agg
}
