package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"dota-tracker/internal/config"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"
)

const SourceOpenDota = "opendota"

var matchProjection = []string{
	"match_id", "player_slot", "radiant_win", "hero_id", "start_time",
	"kills", "deaths", "assists", "gold_per_min", "xp_per_min", "lane",
}

// OpenDotaClient is the primary source. It addresses subjects by raw account id.
type OpenDotaClient struct {
	baseURL string
	apiKey  string
	http    *httpClient
}

func NewOpenDotaClient(cfg *config.Config, observer RequestObserver) *OpenDotaClient {
	return &OpenDotaClient{
		baseURL: strings.TrimRight(cfg.OpenDotaBaseURL, "/"),
		apiKey:  cfg.OpenDotaAPIKey,
		http:    newHTTPClient(SourceOpenDota, constants.ExternalAPITimeout, observer),
	}
}

func (c *OpenDotaClient) url(path string, query url.Values) string {
	if c.apiKey != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("api_key", c.apiKey)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *OpenDotaClient) FetchProfile(ctx context.Context, accountID int64) (*domain.SourceProfile, error) {
	resp, err := doRequest[OpenDotaPlayerResponse](ctx, c.http, c.url(fmt.Sprintf("/players/%d", accountID), nil))
	if err != nil {
		return nil, err
	}
	if resp.Profile == nil {
		return nil, fmt.Errorf("%s: player %d has no profile: %w", SourceOpenDota, accountID, domain.ErrNotFound)
	}

	name := resp.Profile.Personaname
	if name == "" {
		name = resp.Profile.Name
	}

	profile := &domain.SourceProfile{
		AccountID:       resp.Profile.AccountID,
		DisplayName:     name,
		AvatarURL:       resp.Profile.Avatarfull,
		ProfileURL:      resp.Profile.Profileurl,
		PartyRating:     positive(resp.CompetitiveRank),
		SoloRating:      positive(resp.SoloCompetitiveRank),
		RankTier:        positive(resp.RankTier),
		LeaderboardRank: positive(resp.LeaderboardRank),
		Source:          domain.ProvenancePrimary,
	}
	if resp.MMREstimate != nil {
		profile.RatingEstimate = positive(resp.MMREstimate.Estimate)
	}

	if !profile.Usable() {
		return nil, fmt.Errorf("%s: player %d has empty profile: %w", SourceOpenDota, accountID, domain.ErrNotFound)
	}
	return profile, nil
}

func (c *OpenDotaClient) FetchMatches(ctx context.Context, accountID int64, limit int) ([]domain.CanonicalMatch, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	for _, field := range matchProjection {
		query.Add("project", field)
	}

	resp, err := doRequest[[]OpenDotaMatch](ctx, c.http, c.url(fmt.Sprintf("/players/%d/matches", accountID), query))
	if err != nil {
		return nil, err
	}

	matches := make([]domain.CanonicalMatch, 0, len(*resp))
	for _, m := range *resp {
		lane := 0
		if m.Lane != nil {
			lane = *m.Lane
		}
		matches = append(matches, domain.CanonicalMatch{
			MatchID:      m.MatchID,
			StartTime:    m.StartTime,
			Side:         domain.SideFromSlot(m.PlayerSlot),
			FirstTeamWon: m.RadiantWin != nil && *m.RadiantWin,
			HeroID:       m.HeroID,
			Lane:         lane,
			Kills:        m.Kills,
			Deaths:       m.Deaths,
			Assists:      m.Assists,
			GPM:          m.GoldPerMin,
			XPM:          m.XPPerMin,
			Provenance:   domain.ProvenancePrimary,
		})
	}
	return matches, nil
}

func (c *OpenDotaClient) FetchHeroes(ctx context.Context) ([]domain.Hero, error) {
	resp, err := doRequest[[]OpenDotaHero](ctx, c.http, c.url("/heroes", nil))
	if err != nil {
		return nil, err
	}

	heroes := make([]domain.Hero, 0, len(*resp))
	for _, h := range *resp {
		heroes = append(heroes, domain.Hero{ID: h.ID, Name: h.LocalizedName})
	}
	return heroes, nil
}
