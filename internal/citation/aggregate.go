package citation

import (
	"sort"

	"github.com/ppiankov/corroborate/internal/model"
)

var reliabilityScores = map[model.Reliability]float64{
	model.ReliabilityAuthoritative: 100,
	model.ReliabilityReliable:      75,
	model.ReliabilitySecondary:     50,
	model.ReliabilityUnverified:    25,
}

// CitationSet groups every citation behind one claim
type CitationSet struct {
	Primary          *model.SourceCitation  `json:"primary,omitempty"`
	Supporting       []model.SourceCitation `json:"supporting,omitempty"`
	ReliabilityScore float64                `json:"reliability_score"`
	CoverageScore    float64                `json:"coverage_score"`
	SourceTypes      []model.SourceType     `json:"source_types,omitempty"`
}

// Aggregate orders citations by reliability then recency and scores the set.
// The input slice is not modified.
func Aggregate(citations []model.SourceCitation) CitationSet {
	var set CitationSet
	if len(citations) == 0 {
		return set
	}

	sorted := make([]model.SourceCitation, len(citations))
	copy(sorted, citations)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Reliability.Rank(), sorted[j].Reliability.Rank()
		if ri != rj {
			return ri > rj
		}
		return sorted[i].RecencyTime().After(sorted[j].RecencyTime())
	})

	primary := sorted[0]
	set.Primary = &primary
	set.Supporting = sorted[1:]

	var total float64
	seen := make(map[model.SourceType]bool)
	for _, c := range sorted {
		score, ok := reliabilityScores[c.Reliability]
		if !ok {
			score = reliabilityScores[model.ReliabilityUnverified]
		}
		total += score

		st := c.SourceType
		if st == "" {
			st = model.SourceTypeOther
		}
		if !seen[st] {
			seen[st] = true
			set.SourceTypes = append(set.SourceTypes, st)
		}
	}

	set.ReliabilityScore = total / float64(len(sorted))
	set.CoverageScore = float64(len(seen)) * 20
	if set.CoverageScore > 100 {
		set.CoverageScore = 100
	}
	return set
}
