package constants

import "time"

const (
	PollInterval        = 30 * time.Minute
	NotifyPause         = 1 * time.Second
	PollWorkers         = 4
	MatchCacheTTL       = 24 * time.Hour
	SteamRequestsPerSec = 10
)

const (
	ExternalAPITimeout = 30 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 60 * time.Second
	HeroCatalogTimeout = 15 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultMatchLimit      = 50
	SecondaryDetailLimit   = 10
	RatingHistoryLimit     = 20
	RecentPatternSize      = 10
	BestHeroMinGames       = 10
	HeroStreakMinLength    = 3
	LeaderboardRatingFloor = 6000
)

// Hysteresis thresholds for tier tracking.
const (
	TierChangeDelta = 150
	RefreshDelta    = 25
)
