package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"dota-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	OpenDotaBaseURL string
	OpenDotaAPIKey  string
	SteamBaseURL    string
	SteamAPIKey     string

	DBPath     string
	ServerPort string
	LogLevel   string

	PollInterval time.Duration
	PollWorkers  int
	NotifyPause  time.Duration

	SteamRequestsPerSecond int

	RedisAddr     string
	RedisPassword string
	MatchCacheTTL time.Duration

	NotifyWebhookURL string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		OpenDotaBaseURL:  getEnv("OPENDOTA_BASE_URL", "https://api.opendota.com/api"),
		OpenDotaAPIKey:   getEnv("OPENDOTA_API_KEY", ""),
		SteamBaseURL:     getEnv("STEAM_BASE_URL", "https://api.steampowered.com"),
		SteamAPIKey:      getEnv("STEAM_API_KEY", ""),
		DBPath:           getEnv("DB_PATH", "dota-tracker.db"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
	}

	var err error
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", constants.PollInterval); err != nil {
		return nil, err
	}
	if cfg.NotifyPause, err = getDuration("NOTIFY_PAUSE", constants.NotifyPause); err != nil {
		return nil, err
	}
	if cfg.MatchCacheTTL, err = getDuration("MATCH_CACHE_TTL", constants.MatchCacheTTL); err != nil {
		return nil, err
	}
	if cfg.PollWorkers, err = getInt("POLL_WORKERS", constants.PollWorkers); err != nil {
		return nil, err
	}
	if cfg.SteamRequestsPerSecond, err = getInt("STEAM_REQUESTS_PER_SECOND", constants.SteamRequestsPerSec); err != nil {
		return nil, err
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.PollWorkers < 1 {
		return nil, fmt.Errorf("POLL_WORKERS must be at least 1, got %d", cfg.PollWorkers)
	}
	if cfg.SteamRequestsPerSecond < 1 {
		return nil, fmt.Errorf("STEAM_REQUESTS_PER_SECOND must be at least 1, got %d", cfg.SteamRequestsPerSecond)
	}

	if cfg.SteamAPIKey == "" {
		logger.Warn().Msg("STEAM_API_KEY not set, secondary provider disabled")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("poll_interval", cfg.PollInterval).
		Int("poll_workers", cfg.PollWorkers).
		Bool("match_cache", cfg.RedisAddr != "").
		Bool("webhook", cfg.NotifyWebhookURL != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

var Module = fx.Provide(Load)
