package ledger

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/model"
)

// MergeRecord describes one duplicate group folded into a canonical claim
type MergeRecord struct {
	CanonicalID string   `json:"canonical_id"`
	MergedIDs   []string `json:"merged_ids"`
}

// DedupeResult summarises a Deduplicate call
type DedupeResult struct {
	Merges    []MergeRecord `json:"merges,omitempty"`
	Removed   int           `json:"removed"`
	Remaining int           `json:"remaining"`
	Passes    int           `json:"passes"`
}

// Deduplicate merges near-identical claims. Each group is folded into its most
// confident member. Passes repeat until nothing merges, so calling it again
// immediately performs zero merges.
//
// Comparison is pairwise; ledgers above MaxDedupeClaims are refused with ErrTooLarge.
func (l *Ledger) Deduplicate() (DedupeResult, error) {
	var result DedupeResult

	if live := l.Len(); l.config.MaxDedupeClaims > 0 && live > l.config.MaxDedupeClaims {
		return result, fmt.Errorf("%w: %d claims (limit %d)", ErrTooLarge, live, l.config.MaxDedupeClaims)
	}

	for {
		result.Passes++
		merges, err := l.dedupePass()
		if err != nil {
			return result, err
		}
		if len(merges) == 0 {
			break
		}
		result.Merges = append(result.Merges, merges...)
		for _, m := range merges {
			result.Removed += len(m.MergedIDs)
		}
	}

	result.Remaining = l.Len()
	if result.Removed > 0 {
		l.logger.Info("deduplicated claims",
			zap.String("entity", l.entityName),
			zap.Int("removed", result.Removed),
			zap.Int("remaining", result.Remaining),
			zap.Int("passes", result.Passes))
	}
	return result, nil
}

// dedupePass runs one pairwise sweep in slot order
func (l *Ledger) dedupePass() ([]MergeRecord, error) {
	// Claims of different types can never clear a threshold at or above the ceiling
	byType := l.config.SimilarityThreshold >= crossTypeCeiling

	processed := make(map[int]bool)
	var merges []MergeRecord

	for i, ei := range l.slots {
		if ei == nil || processed[i] || ei.claim.Archived {
			continue
		}
		group := []int{i}
		for j := i + 1; j < len(l.slots); j++ {
			ej := l.slots[j]
			if ej == nil || processed[j] || ej.claim.Archived {
				continue
			}
			if byType && ej.claim.ClaimType != ei.claim.ClaimType {
				continue
			}
			if Similarity(ei.claim.Claim, ej.claim.Claim) > l.config.SimilarityThreshold {
				group = append(group, j)
			}
		}
		for _, s := range group {
			processed[s] = true
		}
		if len(group) < 2 {
			continue
		}

		record, err := l.mergeGroup(group)
		if err != nil {
			return merges, err
		}
		merges = append(merges, record)
	}
	return merges, nil
}

// mergeGroup folds every slot in group into the most confident one; ties go to
// the earliest slot
func (l *Ledger) mergeGroup(group []int) (MergeRecord, error) {
	canonical := group[0]
	for _, s := range group[1:] {
		if l.slots[s].claim.Confidence > l.slots[canonical].claim.Confidence {
			canonical = s
		}
	}

	var (
		mergedIDs      []string
		citations      []model.SourceCitation
		contradictions []string
	)
	canon := l.slots[canonical].claim
	for _, s := range group {
		if s == canonical {
			continue
		}
		dup := l.slots[s].claim
		mergedIDs = append(mergedIDs, dup.ID)
		mergedIDs = append(mergedIDs, dup.MergedFromIDs...)
		citations = append(citations, dup.SourceHistory...)
		contradictions = append(contradictions, dup.Contradictions...)
	}

	// Source history is a union by URL keeping the latest access of each
	history := dedupeByURL(append(append([]model.SourceCitation(nil), canon.SourceHistory...), citations...))
	current := dedupeByURL(append(append([]model.SourceCitation(nil), canon.Citations...), citations...))

	updated, err := l.UpdateClaim(canon.ID, ClaimUpdate{
		AddContradictions: contradictions,
		MergedFromIDs:     mergedIDs,
		Reason:            fmt.Sprintf("merged %d duplicate claims", len(group)-1),
		TriggeredBy:       model.TriggerDeduplication,
	})
	if err != nil {
		return MergeRecord{}, err
	}
	canon.SourceHistory = history
	canon.Citations = current

	for _, s := range group {
		if s != canonical {
			l.remove(s)
		}
	}

	return MergeRecord{CanonicalID: updated.ID, MergedIDs: mergedIDs}, nil
}
