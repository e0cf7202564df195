// Package ledger keeps the canonical, versioned claims for one entity.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/logging"
	"github.com/ppiankov/corroborate/internal/model"
)

var (
	// ErrNotFound is returned when a claim id is not in the ledger
	ErrNotFound = errors.New("claim not found")
	// ErrTooLarge is returned when deduplication would exceed the configured claim cap
	ErrTooLarge = errors.New("ledger too large to deduplicate")
)

// AddOutcome says whether AddClaim inserted a record or updated a similar one
type AddOutcome string

const (
	Inserted AddOutcome = "inserted"
	Updated  AddOutcome = "updated"
)

// entry is one arena slot: the current version plus every id that resolves to it
type entry struct {
	claim *model.VersionedClaim
	ids   []string
}

// Ledger owns the claims of a single entity.
//
// A Ledger is not safe for concurrent use. One research run owns one Ledger and
// serialises AddClaim, UpdateClaim and Deduplicate against it.
type Ledger struct {
	entityName string
	entityType string
	config     *model.LedgerConfig
	logger     *zap.Logger
	now        func() time.Time

	slots []*entry       // nil once merged away
	index map[string]int // current and superseded ids -> slot
}

// Option customises a Ledger
type Option func(*Ledger)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates an empty ledger for one entity
func New(entityName, entityType string, config *model.LedgerConfig, logger *zap.Logger, opts ...Option) *Ledger {
	if config == nil {
		config = &model.DefaultConfig().Ledger
	}
	l := &Ledger{
		entityName: entityName,
		entityType: entityType,
		config:     config,
		logger:     logging.OrNop(logger),
		now:        time.Now,
		index:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Len returns the number of live claims
func (l *Ledger) Len() int {
	n := 0
	for _, e := range l.slots {
		if e != nil {
			n++
		}
	}
	return n
}

// Get returns the current version of a claim. Superseded ids resolve to the
// latest version.
func (l *Ledger) Get(id string) (model.VersionedClaim, error) {
	e, err := l.lookup(id)
	if err != nil {
		return model.VersionedClaim{}, err
	}
	return clone(e.claim), nil
}

// Claims returns every live claim in insertion order
func (l *Ledger) Claims() []model.VersionedClaim {
	claims := make([]model.VersionedClaim, 0, len(l.slots))
	for _, e := range l.slots {
		if e != nil {
			claims = append(claims, clone(e.claim))
		}
	}
	return claims
}

// AddClaim ingests a claim with an optional new citation. When an existing
// claim is similar enough the call becomes an update of that claim.
func (l *Ledger) AddClaim(claim model.Claim, citation *model.SourceCitation) (model.VersionedClaim, AddOutcome, error) {
	if claim.Verdict == "" {
		claim.Verdict = model.VerdictUnverifiable
	}
	if !claim.Verdict.Valid() {
		return model.VersionedClaim{}, "", fmt.Errorf("add claim: invalid verdict %q", claim.Verdict)
	}
	if claim.ClaimType == "" {
		claim.ClaimType = model.ClaimTypeGeneral
	}
	claim.Confidence = clampConfidence(claim.Confidence)

	incoming := append([]model.SourceCitation(nil), claim.Citations...)
	if citation != nil {
		incoming = append(incoming, *citation)
	}
	probe := claim
	probe.Citations = incoming

	if slot, sim := l.bestMatch(probe); slot >= 0 {
		existing := l.slots[slot].claim
		l.logger.Debug("claim matches existing record",
			zap.String("claim_id", existing.ID),
			zap.Float64("similarity", sim))

		update := ClaimUpdate{
			AddCitations: incoming,
			Reason:       fmt.Sprintf("new evidence (similarity %.2f)", sim),
			TriggeredBy:  model.TriggerNewEvidence,
		}
		confidence := claim.Confidence
		if claim.Verdict != existing.Verdict {
			update.Verdict = &claim.Verdict
		} else if existing.Confidence > confidence {
			confidence = existing.Confidence
		}
		update.Confidence = &confidence
		if len(claim.Contradictions) > 0 {
			update.AddContradictions = claim.Contradictions
		}

		updated, err := l.UpdateClaim(existing.ID, update)
		if err != nil {
			return model.VersionedClaim{}, "", err
		}
		return updated, Updated, nil
	}

	now := l.now()
	id := claim.ID
	if _, taken := l.index[id]; id == "" || taken {
		id = uuid.NewString()
	}
	vc := &model.VersionedClaim{
		Claim:          claim,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		VerdictHistory: []model.VerdictDelta{},
		SourceHistory:  append([]model.SourceCitation(nil), incoming...),
	}
	vc.ID = id
	vc.Citations = dedupeByURL(incoming)
	vc.Contradictions = append([]string(nil), claim.Contradictions...)

	l.slots = append(l.slots, &entry{claim: vc, ids: []string{id}})
	l.index[id] = len(l.slots) - 1

	return clone(vc), Inserted, nil
}

// bestMatch returns the live slot most similar to claim above the threshold, or -1
func (l *Ledger) bestMatch(claim model.Claim) (int, float64) {
	best, bestSim := -1, 0.0
	for i, e := range l.slots {
		if e == nil || e.claim.Archived {
			continue
		}
		sim := Similarity(claim, e.claim.Claim)
		if sim > l.config.SimilarityThreshold && sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best, bestSim
}

// ClaimUpdate describes one mutation; nil fields are left unchanged
type ClaimUpdate struct {
	ClaimText         *string
	ClaimType         *model.ClaimType
	Verdict           *model.Verdict
	Confidence        *float64
	AddCitations      []model.SourceCitation
	AddContradictions []string
	MergedFromIDs     []string
	Archive           bool
	Reason            string
	TriggeredBy       string
}

// UpdateClaim is the single mutation primitive. Every call produces a new
// version with a fresh id that points back at the previous one; verdict
// changes are appended to the history before the verdict is overwritten.
func (l *Ledger) UpdateClaim(id string, update ClaimUpdate) (model.VersionedClaim, error) {
	e, err := l.lookup(id)
	if err != nil {
		return model.VersionedClaim{}, err
	}
	if update.Verdict != nil && !update.Verdict.Valid() {
		return model.VersionedClaim{}, fmt.Errorf("update claim %s: invalid verdict %q", id, *update.Verdict)
	}

	vc := e.claim
	now := l.now()
	triggeredBy := update.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = model.TriggerManual
	}

	if update.Verdict != nil && *update.Verdict != vc.Verdict {
		vc.VerdictHistory = append(vc.VerdictHistory, model.VerdictDelta{
			FromVerdict: vc.Verdict,
			ToVerdict:   *update.Verdict,
			Timestamp:   now,
			Reason:      update.Reason,
			TriggeredBy: triggeredBy,
		})
		vc.Verdict = *update.Verdict
	}
	if update.ClaimText != nil {
		vc.ClaimText = *update.ClaimText
	}
	if update.ClaimType != nil {
		vc.ClaimType = *update.ClaimType
	}
	if update.Confidence != nil {
		vc.Confidence = clampConfidence(*update.Confidence)
	}
	if len(update.AddCitations) > 0 {
		vc.SourceHistory = append(vc.SourceHistory, update.AddCitations...)
		vc.Citations = dedupeByURL(append(vc.Citations, update.AddCitations...))
	}
	for _, note := range update.AddContradictions {
		if !containsString(vc.Contradictions, note) {
			vc.Contradictions = append(vc.Contradictions, note)
		}
	}
	vc.MergedFromIDs = append(vc.MergedFromIDs, update.MergedFromIDs...)
	if update.Archive {
		vc.Archived = true
	}

	newID := uuid.NewString()
	vc.PreviousVersionID = vc.ID
	vc.ID = newID
	vc.Version++
	vc.UpdatedAt = now

	slot := l.index[id]
	e.ids = append(e.ids, newID)
	l.index[newID] = slot

	l.logger.Debug("claim updated",
		zap.String("claim_id", newID),
		zap.String("previous_id", vc.PreviousVersionID),
		zap.Int("version", vc.Version),
		zap.String("triggered_by", triggeredBy))

	return clone(vc), nil
}

func (l *Ledger) lookup(id string) (*entry, error) {
	slot, ok := l.index[id]
	if !ok || l.slots[slot] == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l.slots[slot], nil
}

// remove drops a slot and every id that resolved to it
func (l *Ledger) remove(slot int) {
	e := l.slots[slot]
	if e == nil {
		return
	}
	for _, id := range e.ids {
		delete(l.index, id)
	}
	l.slots[slot] = nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// dedupeByURL keeps one citation per URL, preferring the most recently accessed
func dedupeByURL(citations []model.SourceCitation) []model.SourceCitation {
	if len(citations) == 0 {
		return nil
	}
	out := make([]model.SourceCitation, 0, len(citations))
	pos := make(map[string]int, len(citations))
	for _, c := range citations {
		if i, ok := pos[c.URL]; ok {
			if c.AccessedAt.After(out[i].AccessedAt) {
				out[i] = c
			}
			continue
		}
		pos[c.URL] = len(out)
		out = append(out, c)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// clone copies a claim so callers never alias ledger state
func clone(vc *model.VersionedClaim) model.VersionedClaim {
	out := *vc
	out.Citations = append([]model.SourceCitation(nil), vc.Citations...)
	out.Contradictions = append([]string(nil), vc.Contradictions...)
	out.VerdictHistory = append([]model.VerdictDelta{}, vc.VerdictHistory...)
	out.SourceHistory = append([]model.SourceCitation(nil), vc.SourceHistory...)
	out.MergedFromIDs = append([]string(nil), vc.MergedFromIDs...)
	return out
}
