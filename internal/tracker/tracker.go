// Package tracker decides, with hysteresis, when an observed rating amounts
// to a real tier change for a tracked subject.
package tracker

import (
	"context"
	"fmt"
	"time"

	"dota-tracker/internal/analytics"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// Store is the persistence the tracker reads its baseline from on every
// call. CompareAndSetRating must apply only if the stored rating still
// equals expected.
type Store interface {
	Get(ctx context.Context, groupID string, subjectID int64) (*domain.TrackedSubject, error)
	CompareAndSetRating(ctx context.Context, groupID string, subjectID int64, expected, next int, change *domain.RatingChange) (bool, error)
}

type Decision int

const (
	DecisionNone Decision = iota
	DecisionRefresh
	DecisionTierChange
)

func (d Decision) String() string {
	switch d {
	case DecisionRefresh:
		return "refresh"
	case DecisionTierChange:
		return "tier_change"
	default:
		return "none"
	}
}

type TierTracker struct {
	store  Store
	tiers  *analytics.Tiers
	logger zerolog.Logger
	now    func() time.Time
}

func New(store Store, tiers *analytics.Tiers, logger zerolog.Logger) *TierTracker {
	return &TierTracker{
		store:  store,
		tiers:  tiers,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Classify applies the hysteresis rule to a stored and an observed rating.
// A large jump that stays inside one tier is deliberately left unpersisted.
func (t *TierTracker) Classify(stored, observed int) Decision {
	delta := observed - stored
	if delta < 0 {
		delta = -delta
	}

	switch {
	case delta >= constants.TierChangeDelta:
		if t.tiers.RatingToTier(stored) != t.tiers.RatingToTier(observed) {
			return DecisionTierChange
		}
		return DecisionNone
	case delta >= constants.RefreshDelta:
		return DecisionRefresh
	default:
		return DecisionNone
	}
}

// Decide reads the subject's current baseline, classifies newRating against
// it and persists the outcome. A nil newRating is a no-op. An event is only
// returned when this call was the one that stored the new tier; a concurrent
// writer that moved the baseline first wins and this call reports nothing.
func (t *TierTracker) Decide(ctx context.Context, groupID string, subjectID int64, newRating *int) (*domain.TierChangeEvent, error) {
	if newRating == nil {
		return nil, nil
	}

	subject, err := t.store.Get(ctx, groupID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subject %d: %w", subjectID, err)
	}

	stored, observed := subject.LastRating, *newRating
	decision := t.Classify(stored, observed)
	if decision == DecisionNone {
		return nil, nil
	}

	oldTier, newTier := t.tiers.RatingToTier(stored), t.tiers.RatingToTier(observed)
	now := t.now()
	source := domain.RatingSourceRefresh
	if decision == DecisionTierChange {
		source = domain.RatingSourceTierChange
	}

	applied, err := t.store.CompareAndSetRating(ctx, groupID, subjectID, stored, observed, &domain.RatingChange{
		GroupID:   groupID,
		SubjectID: subjectID,
		OldRating: stored,
		NewRating: observed,
		OldTier:   oldTier,
		NewTier:   newTier,
		Source:    source,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist rating for subject %d: %w", subjectID, err)
	}
	if !applied {
		t.logger.Info().
			Str("group_id", groupID).
			Int64("subject_id", subjectID).
			Msg("baseline moved by another writer, dropping observation")
		return nil, nil
	}

	t.logger.Debug().
		Str("group_id", groupID).
		Int64("subject_id", subjectID).
		Int("old_rating", stored).
		Int("new_rating", observed).
		Stringer("decision", decision).
		Msg("rating persisted")

	if decision != DecisionTierChange {
		return nil, nil
	}
	return &domain.TierChangeEvent{
		SubjectID:  subjectID,
		GroupID:    groupID,
		OldRating:  stored,
		NewRating:  observed,
		OldTier:    oldTier,
		NewTier:    newTier,
		DetectedAt: now,
	}, nil
}
