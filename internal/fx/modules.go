package fx

import (
	"context"

	"dota-tracker/internal/analytics"
	"dota-tracker/internal/api"
	"dota-tracker/internal/cache"
	"dota-tracker/internal/config"
	"dota-tracker/internal/database"
	"dota-tracker/internal/logger"
	"dota-tracker/internal/metrics"
	"dota-tracker/internal/notify"
	"dota-tracker/internal/repository"
	"dota-tracker/internal/scheduler"
	"dota-tracker/internal/server"
	"dota-tracker/internal/service"
	"dota-tracker/internal/tracker"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideOpenDotaClient(cfg *config.Config, m *metrics.Metrics) *api.OpenDotaClient {
	return api.NewOpenDotaClient(cfg, m)
}

func ProvideSteamClient(cfg *config.Config, m *metrics.Metrics) *api.SteamClient {
	return api.NewSteamClient(cfg, m)
}

func ProvideAnalyzer(
	tiers *analytics.Tiers,
	primary *api.OpenDotaClient,
	secondary *api.SteamClient,
	logger zerolog.Logger,
) *analytics.Analyzer {
	heroNames := service.LoadHeroNames(context.Background(), logger, secondary, primary)
	return analytics.NewAnalyzer(tiers, heroNames)
}

func ProvideReconciler(
	primary *api.OpenDotaClient,
	secondary *api.SteamClient,
	matchCache cache.MatchCache,
	tiers *analytics.Tiers,
	cfg *config.Config,
	logger zerolog.Logger,
) *service.Reconciler {
	return service.NewReconciler(primary, secondary, matchCache, tiers, cfg, logger)
}

func ProvideTrackerService(
	reconciler *service.Reconciler,
	analyzer *analytics.Analyzer,
	subjects *repository.SubjectRepository,
	history *repository.RatingHistoryRepository,
	logger zerolog.Logger,
) *service.TrackerService {
	return service.NewTrackerService(reconciler, analyzer, subjects, history, logger)
}

func ProvideTierTracker(subjects *repository.SubjectRepository, tiers *analytics.Tiers, logger zerolog.Logger) *tracker.TierTracker {
	return tracker.New(subjects, tiers, logger)
}

func ProvideScheduler(
	cfg *config.Config,
	svc *service.TrackerService,
	subjects *repository.SubjectRepository,
	tierTracker *tracker.TierTracker,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *scheduler.Scheduler {
	return scheduler.New(scheduler.ConfigFrom(cfg), svc, subjects, tierTracker, notifier, m, logger)
}

func ProvideTrackerServer(
	svc *service.TrackerService,
	sched *scheduler.Scheduler,
	tiers *analytics.Tiers,
	logger zerolog.Logger,
) *server.TrackerServer {
	return server.NewTrackerServer(svc, sched, tiers, logger)
}

// RegisterScheduler ties the poller to the application lifecycle.
func RegisterScheduler(lc fx.Lifecycle, sched *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return sched.Start(context.Background())
		},
		OnStop: sched.Stop,
	})
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Invoke(database.Register),
	fx.Provide(metrics.New),
	// repos
	fx.Provide(repository.NewSubjectRepository),
	fx.Provide(repository.NewRatingHistoryRepository),
	fx.Provide(cache.New),
	fx.Invoke(cache.Register),
	// api clients
	fx.Provide(ProvideOpenDotaClient),
	fx.Provide(ProvideSteamClient),
	// analytics
	fx.Provide(analytics.DefaultTiers),
	fx.Provide(ProvideAnalyzer),
	// svc
	fx.Provide(ProvideReconciler),
	fx.Provide(ProvideTrackerService),
	fx.Provide(ProvideTierTracker),
	fx.Provide(notify.New),
	fx.Provide(ProvideScheduler),
	fx.Invoke(RegisterScheduler),
	// server
	fx.Provide(ProvideTrackerServer),
)
