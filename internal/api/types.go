package api

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexInt accepts a JSON number or a numeric string. OpenDota has returned
// rank fields in both shapes.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// positive drops absent and non-positive values; zero means "not reported"
// for every rating and rank field the providers expose.
func positive(f *FlexInt) *int {
	if f == nil || *f <= 0 {
		return nil
	}
	v := int(*f)
	return &v
}

type OpenDotaPlayerResponse struct {
	Profile             *OpenDotaProfile `json:"profile"`
	RankTier            *FlexInt         `json:"rank_tier"`
	LeaderboardRank     *FlexInt         `json:"leaderboard_rank"`
	CompetitiveRank     *FlexInt         `json:"competitive_rank"`
	SoloCompetitiveRank *FlexInt         `json:"solo_competitive_rank"`
	MMREstimate         *struct {
		Estimate *FlexInt `json:"estimate"`
	} `json:"mmr_estimate"`
}

type OpenDotaProfile struct {
	AccountID   int64  `json:"account_id"`
	Personaname string `json:"personaname"`
	Name        string `json:"name"`
	Avatarfull  string `json:"avatarfull"`
	Profileurl  string `json:"profileurl"`
	Steamid     string `json:"steamid"`
}

type OpenDotaMatch struct {
	MatchID    int64 `json:"match_id"`
	PlayerSlot int   `json:"player_slot"`
	RadiantWin *bool `json:"radiant_win"`
	HeroID     int   `json:"hero_id"`
	StartTime  int64 `json:"start_time"`
	Duration   int   `json:"duration"`
	GameMode   int   `json:"game_mode"`
	Kills      int   `json:"kills"`
	Deaths     int   `json:"deaths"`
	Assists    int   `json:"assists"`
	GoldPerMin int   `json:"gold_per_min"`
	XPPerMin   int   `json:"xp_per_min"`
	Lane       *int  `json:"lane"`
}

type OpenDotaHero struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	LocalizedName string `json:"localized_name"`
}

type SteamPlayerSummariesResponse struct {
	Response struct {
		Players []SteamPlayerSummary `json:"players"`
	} `json:"response"`
}

type SteamPlayerSummary struct {
	SteamID                  string `json:"steamid"`
	Personaname              string `json:"personaname"`
	Avatarfull               string `json:"avatarfull"`
	Profileurl               string `json:"profileurl"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
}

// Steam reports communityvisibilitystate 3 for public profiles.
const steamVisibilityPublic = 3

type SteamMatchHistoryResponse struct {
	Result struct {
		Status       int    `json:"status"`
		StatusDetail string `json:"statusDetail"`
		Matches      []struct {
			MatchID   int64 `json:"match_id"`
			StartTime int64 `json:"start_time"`
		} `json:"matches"`
	} `json:"result"`
}

// Match history status codes.
const (
	steamHistoryOK      = 1
	steamHistoryPrivate = 15
)

type SteamMatchDetailsResponse struct {
	Result struct {
		Error      string `json:"error"`
		MatchID    int64  `json:"match_id"`
		StartTime  int64  `json:"start_time"`
		RadiantWin bool   `json:"radiant_win"`
		Duration   int    `json:"duration"`
		GameMode   int    `json:"game_mode"`
		Players    []struct {
			AccountID  int64 `json:"account_id"`
			PlayerSlot int   `json:"player_slot"`
			HeroID     int   `json:"hero_id"`
			Kills      int   `json:"kills"`
			Deaths     int   `json:"deaths"`
			Assists    int   `json:"assists"`
			GoldPerMin int   `json:"gold_per_min"`
			XPPerMin   int   `json:"xp_per_min"`
			Lane       int   `json:"lane"`
		} `json:"players"`
	} `json:"result"`
}

type SteamHeroesResponse struct {
	Result struct {
		Heroes []struct {
			ID            int    `json:"id"`
			Name          string `json:"name"`
			LocalizedName string `json:"localized_name"`
		} `json:"heroes"`
	} `json:"result"`
}

var _ json.Unmarshaler = (*FlexInt)(nil)
