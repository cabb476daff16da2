package analytics

import (
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"
)

// CurrentRating picks the best available rating signal: the provider's
// estimate, then the competitive rating, then a value derived from the
// reported tier. Nil means the rating is unknown.
func (t *Tiers) CurrentRating(p *domain.CanonicalProfile) *int {
	if p == nil {
		return nil
	}
	if p.RatingEstimate != nil {
		v := *p.RatingEstimate
		return &v
	}
	if p.PartyRating != nil {
		v := *p.PartyRating
		return &v
	}
	if p.RankTier != nil {
		if v := t.TierToRating(*p.RankTier); v > 0 {
			return &v
		}
	}
	return nil
}

// PeakRating is the highest rating implied by any signal on the profile.
func (t *Tiers) PeakRating(p *domain.CanonicalProfile) int {
	if p == nil {
		return 0
	}

	peak := 0
	if current := t.CurrentRating(p); current != nil {
		peak = *current
	}
	if p.LeaderboardRank != nil {
		peak = max(peak, constants.LeaderboardRatingFloor)
	}
	if p.SoloRating != nil {
		peak = max(peak, *p.SoloRating)
	}
	if p.PartyRating != nil {
		peak = max(peak, *p.PartyRating)
	}
	if p.RankTier != nil {
		peak = max(peak, t.TierToRating(*p.RankTier))
	}
	return peak
}
