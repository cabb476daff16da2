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

const SourceSteam = "steam"

// SteamClient is the secondary source. Profiles are keyed by 64-bit Steam id,
// match history by account id.
type SteamClient struct {
	baseURL string
	apiKey  string
	http    *httpClient
}

func NewSteamClient(cfg *config.Config, observer RequestObserver) *SteamClient {
	return &SteamClient{
		baseURL: strings.TrimRight(cfg.SteamBaseURL, "/"),
		apiKey:  cfg.SteamAPIKey,
		http:    newHTTPClient(SourceSteam, constants.ExternalAPITimeout, observer),
	}
}

func (c *SteamClient) url(path string, query url.Values) (string, error) {
	if c.apiKey == "" {
		c.http.observe(OutcomeTransient)
		return "", fmt.Errorf("%s: api key not configured: %w", SourceSteam, domain.ErrTransient)
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.apiKey)
	query.Set("format", "json")
	return c.baseURL + path + "?" + query.Encode(), nil
}

func (c *SteamClient) FetchProfile(ctx context.Context, accountID int64) (*domain.SourceProfile, error) {
	steamID := AccountIDToSteamID(accountID)
	u, err := c.url("/ISteamUser/GetPlayerSummaries/v0002/", url.Values{"steamids": {strconv.FormatInt(steamID, 10)}})
	if err != nil {
		return nil, err
	}

	resp, err := doRequest[SteamPlayerSummariesResponse](ctx, c.http, u)
	if err != nil {
		return nil, err
	}
	if len(resp.Response.Players) == 0 {
		return nil, fmt.Errorf("%s: no summary for %d: %w", SourceSteam, steamID, domain.ErrNotFound)
	}

	p := resp.Response.Players[0]
	profile := &domain.SourceProfile{
		AccountID:   accountID,
		DisplayName: p.Personaname,
		AvatarURL:   p.Avatarfull,
		ProfileURL:  p.Profileurl,
		Source:      domain.ProvenanceSecondary,
	}
	if id, err := strconv.ParseInt(p.SteamID, 10, 64); err == nil {
		profile.AccountID = SteamIDToAccountID(id)
	}
	if p.CommunityVisibilityState != 0 {
		public := p.CommunityVisibilityState == steamVisibilityPublic
		profile.Public = &public
	}
	return profile, nil
}

// FetchMatchHistory returns match ids, most recent first.
func (c *SteamClient) FetchMatchHistory(ctx context.Context, accountID int64, limit int) ([]int64, error) {
	u, err := c.url("/IDOTA2Match_570/GetMatchHistory/V001/", url.Values{
		"account_id":        {strconv.FormatInt(accountID, 10)},
		"matches_requested": {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}

	resp, err := doRequest[SteamMatchHistoryResponse](ctx, c.http, u)
	if err != nil {
		return nil, err
	}

	switch resp.Result.Status {
	case steamHistoryOK:
	case steamHistoryPrivate:
		return nil, fmt.Errorf("%s: match history for %d not exposed: %w", SourceSteam, accountID, domain.ErrNotFound)
	default:
		return nil, fmt.Errorf("%s: match history status %d %q: %w", SourceSteam, resp.Result.Status, resp.Result.StatusDetail, domain.ErrTransient)
	}

	ids := make([]int64, 0, len(resp.Result.Matches))
	for _, m := range resp.Result.Matches {
		ids = append(ids, m.MatchID)
	}
	return ids, nil
}

func (c *SteamClient) FetchMatchDetail(ctx context.Context, matchID int64) (*domain.MatchDetail, error) {
	u, err := c.url("/IDOTA2Match_570/GetMatchDetails/V001/", url.Values{"match_id": {strconv.FormatInt(matchID, 10)}})
	if err != nil {
		return nil, err
	}

	resp, err := doRequest[SteamMatchDetailsResponse](ctx, c.http, u)
	if err != nil {
		return nil, err
	}
	if resp.Result.Error != "" {
		return nil, fmt.Errorf("%s: match %d: %s: %w", SourceSteam, matchID, resp.Result.Error, domain.ErrNotFound)
	}

	detail := &domain.MatchDetail{
		MatchID:      matchID,
		StartTime:    resp.Result.StartTime,
		FirstTeamWon: resp.Result.RadiantWin,
		Participants: make([]domain.Participant, 0, len(resp.Result.Players)),
	}
	for _, p := range resp.Result.Players {
		detail.Participants = append(detail.Participants, domain.Participant{
			AccountID:  p.AccountID,
			PlayerSlot: p.PlayerSlot,
			HeroID:     p.HeroID,
			Lane:       p.Lane,
			Kills:      p.Kills,
			Deaths:     p.Deaths,
			Assists:    p.Assists,
			GPM:        p.GoldPerMin,
			XPM:        p.XPPerMin,
		})
	}
	return detail, nil
}

func (c *SteamClient) FetchHeroes(ctx context.Context) ([]domain.Hero, error) {
	u, err := c.url("/IEconDOTA2_570/GetHeroes/v0001/", url.Values{"language": {"en"}})
	if err != nil {
		return nil, err
	}

	resp, err := doRequest[SteamHeroesResponse](ctx, c.http, u)
	if err != nil {
		return nil, err
	}
	if len(resp.Result.Heroes) == 0 {
		return nil, fmt.Errorf("%s: empty hero list: %w", SourceSteam, domain.ErrTransient)
	}

	heroes := make([]domain.Hero, 0, len(resp.Result.Heroes))
	for _, h := range resp.Result.Heroes {
		name := h.LocalizedName
		if name == "" {
			name = h.Name
		}
		heroes = append(heroes, domain.Hero{ID: h.ID, Name: name})
	}
	return heroes, nil
}
