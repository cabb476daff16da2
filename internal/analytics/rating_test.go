package analytics

import (
	"testing"

	"dota-tracker/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestTiers_CurrentRating(t *testing.T) {
	tiers := DefaultTiers()
	tests := []struct {
		name    string
		profile *domain.CanonicalProfile
		want    *int
	}{
		{"nil profile", nil, nil},
		{"no signals", &domain.CanonicalProfile{}, nil},
		{"estimate wins", &domain.CanonicalProfile{RatingEstimate: intPtr(3500), PartyRating: intPtr(2000), RankTier: intPtr(11)}, intPtr(3500)},
		{"party next", &domain.CanonicalProfile{PartyRating: intPtr(2000), RankTier: intPtr(11)}, intPtr(2000)},
		{"tier last", &domain.CanonicalProfile{RankTier: intPtr(51)}, intPtr(3157)},
		{"unknown tier", &domain.CanonicalProfile{RankTier: intPtr(99)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tiers.CurrentRating(tt.profile)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("CurrentRating() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("CurrentRating() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestTiers_PeakRating(t *testing.T) {
	tiers := DefaultTiers()
	tests := []struct {
		name    string
		profile *domain.CanonicalProfile
		want    int
	}{
		{"nil", nil, 0},
		{"current only", &domain.CanonicalProfile{RatingEstimate: intPtr(2500)}, 2500},
		{"leaderboard floor", &domain.CanonicalProfile{RatingEstimate: intPtr(2500), LeaderboardRank: intPtr(900)}, 6000},
		{"solo higher", &domain.CanonicalProfile{RatingEstimate: intPtr(2500), SoloRating: intPtr(4100)}, 4100},
		{"party higher", &domain.CanonicalProfile{RatingEstimate: intPtr(2500), PartyRating: intPtr(2900)}, 2900},
		{"tier higher", &domain.CanonicalProfile{RatingEstimate: intPtr(2500), RankTier: intPtr(61)}, 3850 + 77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tiers.PeakRating(tt.profile); got != tt.want {
				t.Errorf("PeakRating() = %d, want %d", got, tt.want)
			}
		})
	}
}
