package domain

import "time"

type Outcome string

const (
	Win  Outcome = "W"
	Loss Outcome = "L"
)

func OutcomeOf(won bool) Outcome {
	if won {
		return Win
	}
	return Loss
}

// AnalyticsSummary is derived per request and never stored.
type AnalyticsSummary struct {
	SubjectID       int64
	DisplayName     string
	AvatarURL       string
	TotalMatches    int
	Wins            int
	WinRate         float64
	FirstMatch      *MatchRef
	TodayFirstMatch *MatchRef
	TodayCount      int
	RecentPattern   []Outcome
	Averages        Averages
	BestHero        *HeroPerformance
	HeroStreak      *HeroStreak
	SuggestedRole   string
	CurrentTier     TierInfo
	PeakTier        TierInfo
}

type MatchRef struct {
	MatchID   int64
	StartedAt time.Time
	HeroID    int
	HeroName  string
	Outcome   Outcome
}

type Averages struct {
	GPM int
	XPM int
	KDA float64
}

type HeroPerformance struct {
	HeroID   int
	HeroName string
	WinRate  float64
	Games    int
}

type HeroStreak struct {
	HeroID   int
	HeroName string
	Count    int
	Results  []Outcome // oldest first
}

type TierInfo struct {
	Code   int
	Name   string
	Rating int
}

type ComparisonEntry struct {
	SubjectID     int64
	DisplayName   string
	TotalMatches  int
	Wins          int
	WinRate       float64
	Averages      Averages
	RecentPattern []Outcome
	BestHero      *HeroPerformance
}

type Comparison struct {
	First  ComparisonEntry
	Second ComparisonEntry
}
