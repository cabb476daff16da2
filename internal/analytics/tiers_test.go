package analytics

import "testing"

func TestTiers_FloorRoundTrip(t *testing.T) {
	tiers := DefaultTiers()
	for _, code := range tiers.Codes() {
		if got := tiers.RatingToTier(tiers.TierFloor(code)); got != code {
			t.Errorf("RatingToTier(TierFloor(%d)=%d) = %d", code, tiers.TierFloor(code), got)
		}
	}
}

func TestTiers_EstimateMapsBack(t *testing.T) {
	tiers := DefaultTiers()
	for _, code := range tiers.Codes() {
		if got := tiers.RatingToTier(tiers.TierToRating(code)); got != code {
			t.Errorf("RatingToTier(TierToRating(%d)) = %d", code, got)
		}
	}
}

func TestTiers_RatingToTier(t *testing.T) {
	tiers := DefaultTiers()
	tests := []struct {
		rating int
		want   int
	}{
		{0, 0},
		{-10, 0},
		{1, 11},
		{153, 11},
		{154, 12},
		{769, 15},
		{770, 21},
		{3000, 45},
		{3079, 45},
		{3080, 51},
		{3100, 51},
		{3234, 52},
		{3300, 52},
		{4619, 65},
		{4620, 71},
		{5259, 74},
		{5260, 75},
		{5419, 75},
		{5420, 80},
		{9000, 80},
	}
	for _, tt := range tests {
		if got := tiers.RatingToTier(tt.rating); got != tt.want {
			t.Errorf("RatingToTier(%d) = %d, want %d", tt.rating, got, tt.want)
		}
	}
}

func TestTiers_TierToRating(t *testing.T) {
	tiers := DefaultTiers()
	tests := []struct {
		tier int
		want int
	}{
		{0, 0},
		{11, 77},
		{25, 770 + 154*4 + 77},
		{51, 3080 + 77},
		{71, 4620 + 80},
		{75, 4620 + 640 + 80},
		{80, 5420},
		{16, 0},
		{90, 0},
	}
	for _, tt := range tests {
		if got := tiers.TierToRating(tt.tier); got != tt.want {
			t.Errorf("TierToRating(%d) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestTiers_Name(t *testing.T) {
	tiers := DefaultTiers()
	tests := map[int]string{
		0:  "Unranked",
		11: "Herald 1",
		45: "Archon 5",
		51: "Legend 1",
		73: "Divine 3",
		80: "Immortal",
		99: "Unknown",
	}
	for code, want := range tests {
		if got := tiers.Name(code); got != want {
			t.Errorf("Name(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestTiers_CodesOrdered(t *testing.T) {
	codes := DefaultTiers().Codes()
	if len(codes) != 1+7*5+1 {
		t.Fatalf("len(Codes()) = %d, want 37", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i] <= codes[i-1] {
			t.Errorf("codes not ascending at %d: %d <= %d", i, codes[i], codes[i-1])
		}
	}
}
