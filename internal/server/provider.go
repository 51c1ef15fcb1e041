package server

import (
	"log/slog"

	"github.com/preston-bernstein/mlb-data-service/internal/config"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
	"github.com/preston-bernstein/mlb-data-service/internal/providers/fixture"
	"github.com/preston-bernstein/mlb-data-service/internal/providers/mlbstats"
)

func selectProvider(cfg config.Config, getter providers.Getter, logger *slog.Logger) providers.DataProvider {
	switch normalizeProviderName(cfg.Provider) {
	case config.ProviderFixture:
		return fixture.New()
	case config.ProviderMLBStats:
		return mlbstats.NewClient(mlbstats.Config{
			BaseURL: cfg.MLB.BaseURL,
			Season:  cfg.MLB.Season,
			Getter:  getter,
			Logger:  logger,
		})
	default:
		logging.Warn(logger, "unknown provider, falling back to fixture", logging.FieldProvider, cfg.Provider)
		return fixture.New()
	}
}
