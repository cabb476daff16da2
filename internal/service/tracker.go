package service

import (
	"context"
	"fmt"

	"dota-tracker/internal/analytics"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type SubjectStore interface {
	Get(ctx context.Context, groupID string, subjectID int64) (*domain.TrackedSubject, error)
	Upsert(ctx context.Context, subject *domain.TrackedSubject, change *domain.RatingChange) error
	Delete(ctx context.Context, groupID string, subjectID int64) error
	ToggleNotifications(ctx context.Context, groupID string, subjectID int64) (bool, error)
	ListByGroup(ctx context.Context, groupID string, enabledOnly bool) ([]domain.TrackedSubject, error)
}

type HistoryStore interface {
	ListBySubject(ctx context.Context, groupID string, subjectID int64, limit int) ([]domain.RatingChange, error)
}

// TrackerService is what the request handlers and the scheduler talk to.
type TrackerService struct {
	reconciler *Reconciler
	analyzer   *analytics.Analyzer
	subjects   SubjectStore
	history    HistoryStore
	logger     zerolog.Logger
}

func NewTrackerService(
	reconciler *Reconciler,
	analyzer *analytics.Analyzer,
	subjects SubjectStore,
	history HistoryStore,
	logger zerolog.Logger,
) *TrackerService {
	return &TrackerService{
		reconciler: reconciler,
		analyzer:   analyzer,
		subjects:   subjects,
		history:    history,
		logger:     logger,
	}
}

func (s *TrackerService) GetCanonicalProfile(ctx context.Context, subjectID int64) (*domain.CanonicalProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	s.logger.Debug().Int64("subject_id", subjectID).Msg("getting profile")
	return s.reconciler.GetProfile(ctx, subjectID)
}

func (s *TrackerService) GetCanonicalMatches(ctx context.Context, subjectID int64, limit int) ([]domain.CanonicalMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	s.logger.Debug().Int64("subject_id", subjectID).Int("limit", limit).Msg("getting matches")
	return s.reconciler.GetMatches(ctx, subjectID, limit)
}

func (s *TrackerService) fetchSubject(ctx context.Context, subjectID int64) (*domain.CanonicalProfile, []domain.CanonicalMatch, error) {
	var profile *domain.CanonicalProfile
	var matches []domain.CanonicalMatch

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.reconciler.GetProfile(gctx, subjectID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.reconciler.GetMatches(gctx, subjectID, constants.DefaultMatchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return profile, matches, nil
}

func (s *TrackerService) ComputeAnalytics(ctx context.Context, subjectID int64) (*domain.AnalyticsSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	profile, matches, err := s.fetchSubject(ctx, subjectID)
	if err != nil {
		s.logger.Error().Err(err).Int64("subject_id", subjectID).Msg("failed to fetch subject for analytics")
		return nil, err
	}

	summary := s.analyzer.Analyze(subjectID, profile, matches)
	s.logger.Info().
		Int64("subject_id", subjectID).
		Int("matches", summary.TotalMatches).
		Str("tier", summary.CurrentTier.Name).
		Msg("analytics computed")
	return &summary, nil
}

// Compare builds side-by-side summaries. If either subject cannot be
// resolved the whole comparison is unavailable.
func (s *TrackerService) Compare(ctx context.Context, first, second int64) (*domain.Comparison, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var a, b analytics.ComparisonInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, matches, err := s.fetchSubject(gctx, first)
		if err != nil {
			return fmt.Errorf("subject %d: %w", first, err)
		}
		a = analytics.ComparisonInput{SubjectID: first, Profile: profile, Matches: matches}
		return nil
	})
	g.Go(func() error {
		profile, matches, err := s.fetchSubject(gctx, second)
		if err != nil {
			return fmt.Errorf("subject %d: %w", second, err)
		}
		b = analytics.ComparisonInput{SubjectID: second, Profile: profile, Matches: matches}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Int64("first", first).Int64("second", second).Msg("comparison unavailable")
		return nil, fmt.Errorf("compare: %w: %w", domain.ErrUnavailable, err)
	}

	cmp := s.analyzer.Compare(a, b)
	return &cmp, nil
}

// RatingFor resolves the subject's current rating. Nil means the sources
// answered but carry no usable rating signal.
func (s *TrackerService) RatingFor(ctx context.Context, subjectID int64) (*int, error) {
	profile, err := s.reconciler.GetProfile(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return profile.Rating, nil
}

// RegisterSubject stores the subject with its current rating as baseline
// and returns that rating. An unknown rating registers as 0.
func (s *TrackerService) RegisterSubject(ctx context.Context, groupID string, subjectID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	rating, err := s.RatingFor(ctx, subjectID)
	if err != nil {
		s.logger.Warn().Err(err).Str("group_id", groupID).Int64("subject_id", subjectID).Msg("registration failed")
		return 0, err
	}

	initial := 0
	if rating != nil {
		initial = *rating
	}

	tiers := s.analyzer.Tiers()
	subject := &domain.TrackedSubject{
		GroupID:              groupID,
		SubjectID:            subjectID,
		LastRating:           initial,
		NotificationsEnabled: true,
	}
	change := &domain.RatingChange{
		GroupID:   groupID,
		SubjectID: subjectID,
		NewRating: initial,
		NewTier:   tiers.RatingToTier(initial),
		Source:    domain.RatingSourceRegister,
	}
	if err := s.subjects.Upsert(ctx, subject, change); err != nil {
		return 0, fmt.Errorf("failed to store subject %d: %w", subjectID, err)
	}

	s.logger.Info().
		Str("group_id", groupID).
		Int64("subject_id", subjectID).
		Int("rating", initial).
		Str("tier", tiers.Name(change.NewTier)).
		Msg("subject registered")
	return initial, nil
}

func (s *TrackerService) UnregisterSubject(ctx context.Context, groupID string, subjectID int64) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.subjects.Delete(ctx, groupID, subjectID); err != nil {
		return err
	}
	s.logger.Info().Str("group_id", groupID).Int64("subject_id", subjectID).Msg("subject unregistered")
	return nil
}

func (s *TrackerService) ToggleNotifications(ctx context.Context, groupID string, subjectID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	enabled, err := s.subjects.ToggleNotifications(ctx, groupID, subjectID)
	if err != nil {
		return false, err
	}
	s.logger.Info().
		Str("group_id", groupID).
		Int64("subject_id", subjectID).
		Bool("enabled", enabled).
		Msg("notifications toggled")
	return enabled, nil
}

func (s *TrackerService) ListSubjects(ctx context.Context, groupID string) ([]domain.TrackedSubject, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.subjects.ListByGroup(ctx, groupID, false)
}

func (s *TrackerService) RatingHistory(ctx context.Context, groupID string, subjectID int64, limit int) ([]domain.RatingChange, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 {
		limit = constants.RatingHistoryLimit
	}
	if _, err := s.subjects.Get(ctx, groupID, subjectID); err != nil {
		return nil, err
	}
	return s.history.ListBySubject(ctx, groupID, subjectID, limit)
}
