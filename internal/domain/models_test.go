package domain

import "testing"

func TestSideFromSlot(t *testing.T) {
	tests := []struct {
		slot int
		want Side
	}{
		{0, FirstTeam},
		{4, FirstTeam},
		{127, FirstTeam},
		{128, SecondTeam},
		{132, SecondTeam},
	}
	for _, tt := range tests {
		if got := SideFromSlot(tt.slot); got != tt.want {
			t.Errorf("SideFromSlot(%d) = %s, want %s", tt.slot, got, tt.want)
		}
	}
}

func TestCanonicalMatch_Won(t *testing.T) {
	tests := []struct {
		side         Side
		firstTeamWon bool
		want         bool
	}{
		{FirstTeam, true, true},
		{FirstTeam, false, false},
		{SecondTeam, false, true},
		{SecondTeam, true, false},
	}
	for _, tt := range tests {
		m := CanonicalMatch{Side: tt.side, FirstTeamWon: tt.firstTeamWon}
		if got := m.Won(); got != tt.want {
			t.Errorf("Won(side=%s, firstTeamWon=%v) = %v, want %v", tt.side, tt.firstTeamWon, got, tt.want)
		}
	}
}

func TestCanonicalMatch_WonSymmetric(t *testing.T) {
	flip := map[Side]Side{FirstTeam: SecondTeam, SecondTeam: FirstTeam}
	for _, side := range []Side{FirstTeam, SecondTeam} {
		for _, won := range []bool{true, false} {
			m := CanonicalMatch{Side: side, FirstTeamWon: won}
			swapped := CanonicalMatch{Side: flip[side], FirstTeamWon: !won}
			if m.Won() != swapped.Won() {
				t.Errorf("verdict changed when swapping side %s and outcome %v", side, won)
			}
		}
	}
}

func TestSourceProfile_Usable(t *testing.T) {
	tests := []struct {
		name string
		p    *SourceProfile
		want bool
	}{
		{"nil", nil, false},
		{"empty", &SourceProfile{}, false},
		{"name only", &SourceProfile{DisplayName: "Miracle-"}, true},
		{"account only", &SourceProfile{AccountID: 105248644}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}
