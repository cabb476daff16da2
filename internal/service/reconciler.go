package service

import (
	"context"
	"errors"
	"fmt"

	"dota-tracker/internal/analytics"
	"dota-tracker/internal/cache"
	"dota-tracker/internal/config"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type ProfileSource interface {
	FetchProfile(ctx context.Context, accountID int64) (*domain.SourceProfile, error)
}

// PrimarySource reports matches already projected for the subject.
type PrimarySource interface {
	ProfileSource
	FetchMatches(ctx context.Context, accountID int64, limit int) ([]domain.CanonicalMatch, error)
}

// SecondarySource only lists match ids; each match has to be fetched in full
// and the subject located among its participants.
type SecondarySource interface {
	ProfileSource
	FetchMatchHistory(ctx context.Context, accountID int64, limit int) ([]int64, error)
	FetchMatchDetail(ctx context.Context, matchID int64) (*domain.MatchDetail, error)
}

type Reconciler struct {
	primary   PrimarySource
	secondary SecondarySource
	cache     cache.MatchCache
	tiers     *analytics.Tiers
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

func NewReconciler(
	primary PrimarySource,
	secondary SecondarySource,
	matchCache cache.MatchCache,
	tiers *analytics.Tiers,
	cfg *config.Config,
	logger zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		primary:   primary,
		secondary: secondary,
		cache:     matchCache,
		tiers:     tiers,
		limiter:   rate.NewLimiter(rate.Limit(cfg.SteamRequestsPerSecond), 1),
		logger:    logger,
	}
}

// exhausted builds the error returned once both sources failed. Only when
// both sources agree the subject does not exist does it match ErrNotFound;
// the individual causes are kept as text.
func exhausted(what string, subjectID int64, primaryErr, secondaryErr error) error {
	if errors.Is(primaryErr, domain.ErrNotFound) && errors.Is(secondaryErr, domain.ErrNotFound) {
		return fmt.Errorf("%s for subject %d: %w: %w", what, subjectID, domain.ErrNotFound, domain.ErrUnavailable)
	}
	return fmt.Errorf("%s for subject %d: %w (primary: %v; secondary: %v)",
		what, subjectID, domain.ErrUnavailable, primaryErr, secondaryErr)
}

// GetProfile queries both sources concurrently. The primary profile is
// canonical; the secondary fills its gaps or stands in for it.
func (r *Reconciler) GetProfile(ctx context.Context, subjectID int64) (*domain.CanonicalProfile, error) {
	var (
		primary, secondary       *domain.SourceProfile
		primaryErr, secondaryErr error
		g                        errgroup.Group
	)
	g.Go(func() error {
		primary, primaryErr = r.primary.FetchProfile(ctx, subjectID)
		if primaryErr == nil && !primary.Usable() {
			primaryErr = fmt.Errorf("primary profile unusable: %w", domain.ErrNotFound)
		}
		return nil
	})
	g.Go(func() error {
		secondary, secondaryErr = r.secondary.FetchProfile(ctx, subjectID)
		if secondaryErr == nil && !secondary.Usable() {
			secondaryErr = fmt.Errorf("secondary profile unusable: %w", domain.ErrNotFound)
		}
		return nil
	})
	_ = g.Wait()

	switch {
	case primaryErr == nil:
		if secondaryErr != nil {
			secondary = nil
			r.logger.Debug().Err(secondaryErr).Int64("subject_id", subjectID).Msg("secondary profile unavailable, using primary only")
		}
		return r.merge(subjectID, primary, secondary), nil
	case secondaryErr == nil:
		r.logger.Info().Err(primaryErr).Int64("subject_id", subjectID).Msg("primary profile unavailable, falling back to secondary")
		return r.fromSecondary(subjectID, secondary), nil
	default:
		r.logger.Warn().
			Int64("subject_id", subjectID).
			AnErr("primary", primaryErr).
			AnErr("secondary", secondaryErr).
			Msg("no profile source available")
		return nil, exhausted("profile", subjectID, primaryErr, secondaryErr)
	}
}

// merge keeps the primary's values and fills empty or unset fields from the
// secondary. Visibility comes from the secondary when it reports one.
func (r *Reconciler) merge(subjectID int64, p, s *domain.SourceProfile) *domain.CanonicalProfile {
	profile := &domain.CanonicalProfile{
		SubjectID:       subjectID,
		DisplayName:     p.DisplayName,
		AvatarURL:       p.AvatarURL,
		ProfileURL:      p.ProfileURL,
		Public:          p.Public,
		RankTier:        p.RankTier,
		RatingEstimate:  p.RatingEstimate,
		PartyRating:     p.PartyRating,
		SoloRating:      p.SoloRating,
		LeaderboardRank: p.LeaderboardRank,
		Complete:        true,
		Provenance:      domain.ProvenancePrimary,
	}

	if s != nil {
		if profile.DisplayName == "" {
			profile.DisplayName = s.DisplayName
		}
		if profile.AvatarURL == "" {
			profile.AvatarURL = s.AvatarURL
		}
		if profile.ProfileURL == "" {
			profile.ProfileURL = s.ProfileURL
		}
		if s.Public != nil {
			profile.Public = s.Public
		}
		profile.Provenance = domain.ProvenanceMerged
	}

	profile.Rating = r.tiers.CurrentRating(profile)
	return profile
}

func (r *Reconciler) fromSecondary(subjectID int64, s *domain.SourceProfile) *domain.CanonicalProfile {
	profile := &domain.CanonicalProfile{
		SubjectID:       subjectID,
		DisplayName:     s.DisplayName,
		AvatarURL:       s.AvatarURL,
		ProfileURL:      s.ProfileURL,
		Public:          s.Public,
		RankTier:        s.RankTier,
		RatingEstimate:  s.RatingEstimate,
		PartyRating:     s.PartyRating,
		SoloRating:      s.SoloRating,
		LeaderboardRank: s.LeaderboardRank,
		Complete:        false,
		Provenance:      domain.ProvenanceSecondary,
	}
	profile.Rating = r.tiers.CurrentRating(profile)
	return profile
}

// GetMatches returns the primary's list when it has one. Otherwise the
// secondary is walked match by match, at most SecondaryDetailLimit details
// and paced by the limiter. Matches the subject cannot be located in are
// dropped.
func (r *Reconciler) GetMatches(ctx context.Context, subjectID int64, limit int) ([]domain.CanonicalMatch, error) {
	if limit <= 0 {
		limit = constants.DefaultMatchLimit
	}

	matches, primaryErr := r.primary.FetchMatches(ctx, subjectID, limit)
	if primaryErr == nil && len(matches) > 0 {
		return matches, nil
	}
	if primaryErr != nil {
		r.logger.Info().Err(primaryErr).Int64("subject_id", subjectID).Msg("primary matches unavailable, falling back to secondary")
	}

	fallback, secondaryErr := r.secondaryMatches(ctx, subjectID, limit)
	if secondaryErr == nil {
		return fallback, nil
	}
	if primaryErr == nil {
		r.logger.Debug().Err(secondaryErr).Int64("subject_id", subjectID).Msg("secondary matches unavailable, primary reported none")
		return []domain.CanonicalMatch{}, nil
	}

	r.logger.Warn().
		Int64("subject_id", subjectID).
		AnErr("primary", primaryErr).
		AnErr("secondary", secondaryErr).
		Msg("no match source available")
	return nil, exhausted("matches", subjectID, primaryErr, secondaryErr)
}

func (r *Reconciler) secondaryMatches(ctx context.Context, subjectID int64, limit int) ([]domain.CanonicalMatch, error) {
	n := min(limit, constants.SecondaryDetailLimit)
	ids, err := r.secondary.FetchMatchHistory(ctx, subjectID, n)
	if err != nil {
		return nil, err
	}
	if len(ids) > n {
		ids = ids[:n]
	}

	matches := make([]domain.CanonicalMatch, 0, len(ids))
	for _, matchID := range ids {
		detail, err := r.matchDetail(ctx, matchID)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Warn().Err(err).Int64("subject_id", subjectID).Int("fetched", len(matches)).Msg("match detail fetch cancelled")
				break
			}
			r.logger.Warn().Err(err).Int64("match_id", matchID).Msg("skipping match, detail unavailable")
			continue
		}

		m, ok := ProjectParticipant(detail, subjectID)
		if !ok {
			r.logger.Debug().Int64("match_id", matchID).Int64("subject_id", subjectID).Msg("subject not in match, dropping")
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *Reconciler) matchDetail(ctx context.Context, matchID int64) (*domain.MatchDetail, error) {
	cached, err := r.cache.Get(ctx, matchID)
	if err != nil {
		r.logger.Warn().Err(err).Int64("match_id", matchID).Msg("match cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w: %w", domain.ErrTransient, err)
	}
	detail, err := r.secondary.FetchMatchDetail(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, detail); err != nil {
		r.logger.Warn().Err(err).Int64("match_id", matchID).Msg("match cache write failed")
	}
	return detail, nil
}

// ProjectParticipant locates subjectID among the match's participants and
// builds the subject's view of the match.
func ProjectParticipant(detail *domain.MatchDetail, subjectID int64) (domain.CanonicalMatch, bool) {
	for _, p := range detail.Participants {
		if p.AccountID != subjectID {
			continue
		}
		return domain.CanonicalMatch{
			MatchID:      detail.MatchID,
			StartTime:    detail.StartTime,
			Side:         domain.SideFromSlot(p.PlayerSlot),
			FirstTeamWon: detail.FirstTeamWon,
			HeroID:       p.HeroID,
			Lane:         p.Lane,
			Kills:        p.Kills,
			Deaths:       p.Deaths,
			Assists:      p.Assists,
			GPM:          p.GPM,
			XPM:          p.XPM,
			Provenance:   domain.ProvenanceSecondary,
		}, true
	}
	return domain.CanonicalMatch{}, false
}
