package service

import (
	"context"

	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type HeroSource interface {
	FetchHeroes(ctx context.Context) ([]domain.Hero, error)
}

// LoadHeroNames asks each source in turn and keeps the first non-empty
// catalog. If every source fails the table is empty and hero names render
// blank.
func LoadHeroNames(ctx context.Context, logger zerolog.Logger, sources ...HeroSource) map[int]string {
	ctx, cancel := context.WithTimeout(ctx, constants.HeroCatalogTimeout)
	defer cancel()

	for i, src := range sources {
		heroes, err := src.FetchHeroes(ctx)
		if err != nil {
			logger.Warn().Err(err).Int("source", i).Msg("hero catalog source failed")
			continue
		}
		if len(heroes) == 0 {
			continue
		}

		names := make(map[int]string, len(heroes))
		for _, h := range heroes {
			names[h.ID] = h.Name
		}
		logger.Info().Int("heroes", len(names)).Int("source", i).Msg("hero catalog loaded")
		return names
	}

	logger.Warn().Msg("hero catalog unavailable, hero names will be empty")
	return map[int]string{}
}
