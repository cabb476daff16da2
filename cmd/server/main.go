package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"dota-tracker/internal/config"
	"dota-tracker/internal/constants"
	fxmodules "dota-tracker/internal/fx"
	"dota-tracker/internal/metrics"
	"dota-tracker/internal/middleware"
	"dota-tracker/internal/server"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const MetricsPath = "/metrics"

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	trackerServer *server.TrackerServer,
	m *metrics.Metrics,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()

	path, handler := trackerServer.Handler()
	cors := middleware.CORS()
	requestID := middleware.RequestID(logger)

	mux.Handle(path, cors(requestID(handler)))
	mux.Handle(MetricsPath, m.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: mux,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Str("rpc", path).Str("metrics", MetricsPath).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
