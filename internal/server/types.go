package server

import (
	"strconv"
	"time"

	"dota-tracker/internal/analytics"
	"dota-tracker/internal/api"
	"dota-tracker/internal/domain"
)

// Account ids arrive as strings so callers can send either a friend id or a
// 64-bit Steam id without losing precision in JavaScript clients.

type ProfileRequest struct {
	AccountID string `json:"accountId"`
}

type MatchesRequest struct {
	AccountID string `json:"accountId"`
	Limit     int    `json:"limit,omitempty"`
}

type CompareRequest struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

type SubjectRequest struct {
	GroupID   string `json:"groupId"`
	AccountID string `json:"accountId"`
}

type GroupRequest struct {
	GroupID string `json:"groupId"`
}

type RatingHistoryRequest struct {
	GroupID   string `json:"groupId"`
	AccountID string `json:"accountId"`
	Limit     int    `json:"limit,omitempty"`
}

type Tier struct {
	Code   int    `json:"code"`
	Name   string `json:"name"`
	Rating int    `json:"rating,omitempty"`
}

type ProfileResponse struct {
	AccountID       int64  `json:"accountId"`
	SteamID         string `json:"steamId"`
	DisplayName     string `json:"displayName"`
	AvatarURL       string `json:"avatarUrl,omitempty"`
	ProfileURL      string `json:"profileUrl,omitempty"`
	Public          *bool  `json:"public,omitempty"`
	Rating          *int   `json:"rating,omitempty"`
	CurrentTier     *Tier  `json:"currentTier,omitempty"`
	RankTier        *int   `json:"rankTier,omitempty"`
	LeaderboardRank *int   `json:"leaderboardRank,omitempty"`
	Complete        bool   `json:"complete"`
	Provenance      string `json:"provenance"`
}

type Match struct {
	MatchID    int64  `json:"matchId"`
	StartedAt  string `json:"startedAt"`
	Side       string `json:"side"`
	Won        bool   `json:"won"`
	HeroID     int    `json:"heroId"`
	Lane       int    `json:"lane,omitempty"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Assists    int    `json:"assists"`
	GPM        int    `json:"gpm"`
	XPM        int    `json:"xpm"`
	Provenance string `json:"provenance"`
}

type MatchesResponse struct {
	Matches []Match `json:"matches"`
}

type MatchRef struct {
	MatchID   int64  `json:"matchId"`
	StartedAt string `json:"startedAt"`
	HeroID    int    `json:"heroId"`
	HeroName  string `json:"heroName"`
	Outcome   string `json:"outcome"`
}

type Averages struct {
	GPM int     `json:"gpm"`
	XPM int     `json:"xpm"`
	KDA float64 `json:"kda"`
}

type HeroPerformance struct {
	HeroID   int     `json:"heroId"`
	HeroName string  `json:"heroName"`
	WinRate  float64 `json:"winRate"`
	Games    int     `json:"games"`
}

type HeroStreak struct {
	HeroID   int      `json:"heroId"`
	HeroName string   `json:"heroName"`
	Count    int      `json:"count"`
	Results  []string `json:"results"`
}

type AnalyticsResponse struct {
	AccountID       int64            `json:"accountId"`
	DisplayName     string           `json:"displayName"`
	AvatarURL       string           `json:"avatarUrl,omitempty"`
	TotalMatches    int              `json:"totalMatches"`
	Wins            int              `json:"wins"`
	WinRate         float64          `json:"winRate"`
	FirstMatch      *MatchRef        `json:"firstMatch,omitempty"`
	TodayFirstMatch *MatchRef        `json:"todayFirstMatch,omitempty"`
	TodayCount      int              `json:"todayCount"`
	RecentPattern   []string         `json:"recentPattern"`
	Averages        Averages         `json:"averages"`
	BestHero        *HeroPerformance `json:"bestHero,omitempty"`
	HeroStreak      *HeroStreak      `json:"heroStreak,omitempty"`
	SuggestedRole   string           `json:"suggestedRole"`
	CurrentTier     Tier             `json:"currentTier"`
	PeakTier        Tier             `json:"peakTier"`
}

type ComparisonEntry struct {
	AccountID     int64            `json:"accountId"`
	DisplayName   string           `json:"displayName"`
	TotalMatches  int              `json:"totalMatches"`
	Wins          int              `json:"wins"`
	WinRate       float64          `json:"winRate"`
	Averages      Averages         `json:"averages"`
	RecentPattern []string         `json:"recentPattern"`
	BestHero      *HeroPerformance `json:"bestHero,omitempty"`
}

type CompareResponse struct {
	First  ComparisonEntry `json:"first"`
	Second ComparisonEntry `json:"second"`
}

type RegisterResponse struct {
	InitialRating int  `json:"initialRating"`
	Tier          Tier `json:"tier"`
}

type UnregisterResponse struct{}

type ToggleResponse struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

type Subject struct {
	AccountID            int64  `json:"accountId"`
	LastRating           int    `json:"lastRating"`
	Tier                 Tier   `json:"tier"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	CreatedAt            string `json:"createdAt"`
}

type SubjectsResponse struct {
	Subjects []Subject `json:"subjects"`
}

type RatingChange struct {
	ID        string `json:"id"`
	OldRating int    `json:"oldRating"`
	NewRating int    `json:"newRating"`
	OldTier   Tier   `json:"oldTier"`
	NewTier   Tier   `json:"newTier"`
	Source    string `json:"source"`
	CreatedAt string `json:"createdAt"`
}

type RatingHistoryResponse struct {
	Changes []RatingChange `json:"changes"`
}

type TierChangeEvent struct {
	AccountID  int64  `json:"accountId"`
	OldRating  int    `json:"oldRating"`
	NewRating  int    `json:"newRating"`
	OldTier    Tier   `json:"oldTier"`
	NewTier    Tier   `json:"newTier"`
	Promoted   bool   `json:"promoted"`
	DetectedAt string `json:"detectedAt"`
}

type PollResponse struct {
	Events []TierChangeEvent `json:"events"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func tierOf(tiers *analytics.Tiers, code int) Tier {
	return Tier{Code: code, Name: tiers.Name(code)}
}

func fromTierInfo(t domain.TierInfo) Tier {
	return Tier{Code: t.Code, Name: t.Name, Rating: t.Rating}
}

func outcomes(in []domain.Outcome) []string {
	out := make([]string, len(in))
	for i, o := range in {
		out[i] = string(o)
	}
	return out
}

func toProfile(p *domain.CanonicalProfile, tiers *analytics.Tiers) *ProfileResponse {
	resp := &ProfileResponse{
		AccountID:       p.SubjectID,
		SteamID:         strconv.FormatInt(api.AccountIDToSteamID(p.SubjectID), 10),
		DisplayName:     p.DisplayName,
		AvatarURL:       p.AvatarURL,
		ProfileURL:      p.ProfileURL,
		Public:          p.Public,
		Rating:          p.Rating,
		RankTier:        p.RankTier,
		LeaderboardRank: p.LeaderboardRank,
		Complete:        p.Complete,
		Provenance:      string(p.Provenance),
	}
	if p.Rating != nil {
		tier := tierOf(tiers, tiers.RatingToTier(*p.Rating))
		resp.CurrentTier = &tier
	}
	return resp
}

func toMatches(matches []domain.CanonicalMatch) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, Match{
			MatchID:    m.MatchID,
			StartedAt:  formatTime(m.StartedAt()),
			Side:       string(m.Side),
			Won:        m.Won(),
			HeroID:     m.HeroID,
			Lane:       m.Lane,
			Kills:      m.Kills,
			Deaths:     m.Deaths,
			Assists:    m.Assists,
			GPM:        m.GPM,
			XPM:        m.XPM,
			Provenance: string(m.Provenance),
		})
	}
	return out
}

func toMatchRef(m *domain.MatchRef) *MatchRef {
	if m == nil {
		return nil
	}
	return &MatchRef{
		MatchID:   m.MatchID,
		StartedAt: formatTime(m.StartedAt),
		HeroID:    m.HeroID,
		HeroName:  m.HeroName,
		Outcome:   string(m.Outcome),
	}
}

func toHeroPerformance(h *domain.HeroPerformance) *HeroPerformance {
	if h == nil {
		return nil
	}
	return &HeroPerformance{HeroID: h.HeroID, HeroName: h.HeroName, WinRate: h.WinRate, Games: h.Games}
}

func toAverages(a domain.Averages) Averages {
	return Averages{GPM: a.GPM, XPM: a.XPM, KDA: a.KDA}
}

func toAnalytics(s *domain.AnalyticsSummary) *AnalyticsResponse {
	resp := &AnalyticsResponse{
		AccountID:       s.SubjectID,
		DisplayName:     s.DisplayName,
		AvatarURL:       s.AvatarURL,
		TotalMatches:    s.TotalMatches,
		Wins:            s.Wins,
		WinRate:         s.WinRate,
		FirstMatch:      toMatchRef(s.FirstMatch),
		TodayFirstMatch: toMatchRef(s.TodayFirstMatch),
		TodayCount:      s.TodayCount,
		RecentPattern:   outcomes(s.RecentPattern),
		Averages:        toAverages(s.Averages),
		BestHero:        toHeroPerformance(s.BestHero),
		SuggestedRole:   s.SuggestedRole,
		CurrentTier:     fromTierInfo(s.CurrentTier),
		PeakTier:        fromTierInfo(s.PeakTier),
	}
	if s.HeroStreak != nil {
		resp.HeroStreak = &HeroStreak{
			HeroID:   s.HeroStreak.HeroID,
			HeroName: s.HeroStreak.HeroName,
			Count:    s.HeroStreak.Count,
			Results:  outcomes(s.HeroStreak.Results),
		}
	}
	return resp
}

func toComparisonEntry(e domain.ComparisonEntry) ComparisonEntry {
	return ComparisonEntry{
		AccountID:     e.SubjectID,
		DisplayName:   e.DisplayName,
		TotalMatches:  e.TotalMatches,
		Wins:          e.Wins,
		WinRate:       e.WinRate,
		Averages:      toAverages(e.Averages),
		RecentPattern: outcomes(e.RecentPattern),
		BestHero:      toHeroPerformance(e.BestHero),
	}
}

func toSubjects(subjects []domain.TrackedSubject, tiers *analytics.Tiers) []Subject {
	out := make([]Subject, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, Subject{
			AccountID:            s.SubjectID,
			LastRating:           s.LastRating,
			Tier:                 tierOf(tiers, tiers.RatingToTier(s.LastRating)),
			NotificationsEnabled: s.NotificationsEnabled,
			CreatedAt:            formatTime(s.CreatedAt),
		})
	}
	return out
}

func toRatingChanges(changes []domain.RatingChange, tiers *analytics.Tiers) []RatingChange {
	out := make([]RatingChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, RatingChange{
			ID:        c.ID,
			OldRating: c.OldRating,
			NewRating: c.NewRating,
			OldTier:   tierOf(tiers, c.OldTier),
			NewTier:   tierOf(tiers, c.NewTier),
			Source:    string(c.Source),
			CreatedAt: formatTime(c.CreatedAt),
		})
	}
	return out
}

func toEvents(events []domain.TierChangeEvent, tiers *analytics.Tiers) []TierChangeEvent {
	out := make([]TierChangeEvent, 0, len(events))
	for _, e := range events {
		out = append(out, TierChangeEvent{
			AccountID:  e.SubjectID,
			OldRating:  e.OldRating,
			NewRating:  e.NewRating,
			OldTier:    tierOf(tiers, e.OldTier),
			NewTier:    tierOf(tiers, e.NewTier),
			Promoted:   e.Promoted(),
			DetectedAt: formatTime(e.DetectedAt),
		})
	}
	return out
}
