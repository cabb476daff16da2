// Package scheduler drives the periodic tier check for every tracked group.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"dota-tracker/internal/config"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"
	"dota-tracker/internal/notify"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type RatingSource interface {
	RatingFor(ctx context.Context, subjectID int64) (*int, error)
}

type SubjectLister interface {
	ListGroups(ctx context.Context) ([]string, error)
	ListByGroup(ctx context.Context, groupID string, enabledOnly bool) ([]domain.TrackedSubject, error)
}

type Decider interface {
	Decide(ctx context.Context, groupID string, subjectID int64, newRating *int) (*domain.TierChangeEvent, error)
}

type Recorder interface {
	TierChange(promoted bool)
	SubjectSkipped(reason string)
	TickSkipped()
	PollDuration(d time.Duration)
}

type Config struct {
	Interval    time.Duration
	Workers     int
	NotifyPause time.Duration
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Interval:    cfg.PollInterval,
		Workers:     cfg.PollWorkers,
		NotifyPause: cfg.NotifyPause,
	}
}

type Scheduler struct {
	cfg      Config
	ratings  RatingSource
	subjects SubjectLister
	tracker  Decider
	notifier notify.Notifier
	recorder Recorder
	logger   zerolog.Logger

	tickMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	cfg Config,
	ratings RatingSource,
	subjects SubjectLister,
	tracker Decider,
	notifier notify.Notifier,
	recorder Recorder,
	logger zerolog.Logger,
) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scheduler{
		cfg:      cfg,
		ratings:  ratings,
		subjects: subjects,
		tracker:  tracker,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Int("workers", s.cfg.Workers).
		Msg("tier poller started")
	return nil
}

// Stop cancels the loop and waits for an in-flight tick, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("tier poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.Tick(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Tick(s.ctx)
		}
	}
}

// Tick polls every group once. If a previous tick is still running the
// call returns immediately and reports false.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.tickMu.TryLock() {
		s.logger.Warn().Msg("previous tick still running, skipping")
		s.recorder.TickSkipped()
		return false
	}
	defer s.tickMu.Unlock()

	start := time.Now()
	defer func() { s.recorder.PollDuration(time.Since(start)) }()

	listCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	groups, err := s.subjects.ListGroups(listCtx)
	cancel()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list groups")
		return true
	}
	if len(groups) == 0 {
		s.logger.Debug().Msg("no tracked groups to poll")
		return true
	}

	var events atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for _, groupID := range groups {
		g.Go(func() error {
			emitted, err := s.PollOnce(ctx, groupID)
			if err != nil {
				s.logger.Error().Err(err).Str("group_id", groupID).Msg("group poll failed")
			}
			events.Add(int64(len(emitted)))
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info().
		Int("groups", len(groups)).
		Int64("events", events.Load()).
		Dur("duration", time.Since(start)).
		Msg("poll cycle complete")
	return true
}

// PollOnce checks every notification-enabled subject in the group in
// order. A subject whose rating cannot be fetched is logged and skipped;
// the rest of the group is still processed. Each emitted event is
// delivered and followed by NotifyPause before the next subject.
func (s *Scheduler) PollOnce(ctx context.Context, groupID string) ([]domain.TierChangeEvent, error) {
	listCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	subjects, err := s.subjects.ListByGroup(listCtx, groupID, true)
	cancel()
	if err != nil {
		return nil, err
	}

	logger := s.logger.With().Str("group_id", groupID).Logger()
	events := []domain.TierChangeEvent{}

	for i, subject := range subjects {
		if ctx.Err() != nil {
			logger.Warn().Int("remaining", len(subjects)-i).Msg("poll cancelled")
			break
		}

		event, err := s.pollSubject(ctx, groupID, subject.SubjectID)
		if err != nil {
			logger.Warn().Err(err).Int64("subject_id", subject.SubjectID).Msg("skipping subject")
			continue
		}
		if event == nil {
			continue
		}

		events = append(events, *event)
		s.recorder.TierChange(event.Promoted())
		if err := s.notifier.Notify(ctx, *event); err != nil {
			logger.Error().Err(err).Int64("subject_id", subject.SubjectID).Msg("failed to deliver tier change")
		}

		if err := sleep(ctx, s.cfg.NotifyPause); err != nil {
			break
		}
	}
	return events, nil
}

func (s *Scheduler) pollSubject(ctx context.Context, groupID string, subjectID int64) (*domain.TierChangeEvent, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	rating, err := s.ratings.RatingFor(fetchCtx, subjectID)
	if err != nil {
		s.recorder.SubjectSkipped("fetch_failed")
		return nil, err
	}
	if rating == nil {
		s.recorder.SubjectSkipped("no_rating")
		return nil, nil
	}

	event, err := s.tracker.Decide(ctx, groupID, subjectID, rating)
	if err != nil {
		s.recorder.SubjectSkipped("store_failed")
		return nil, err
	}
	return event, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
