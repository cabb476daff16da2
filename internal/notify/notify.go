// Package notify delivers tier change events. Formatting for people is left
// to whoever consumes the webhook.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dota-tracker/internal/analytics"
	"dota-tracker/internal/config"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

type Notifier interface {
	Notify(ctx context.Context, event domain.TierChangeEvent) error
}

type LogNotifier struct {
	tiers  *analytics.Tiers
	logger zerolog.Logger
}

func NewLogNotifier(tiers *analytics.Tiers, logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{tiers: tiers, logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event domain.TierChangeEvent) error {
	n.logger.Info().
		Str("group_id", event.GroupID).
		Int64("subject_id", event.SubjectID).
		Int("old_rating", event.OldRating).
		Int("new_rating", event.NewRating).
		Str("old_tier", n.tiers.Name(event.OldTier)).
		Str("new_tier", n.tiers.Name(event.NewTier)).
		Bool("promoted", event.Promoted()).
		Msg("tier changed")
	return nil
}

type webhookPayload struct {
	GroupID     string    `json:"group_id"`
	SubjectID   int64     `json:"subject_id"`
	OldRating   int       `json:"old_rating"`
	NewRating   int       `json:"new_rating"`
	OldTier     int       `json:"old_tier"`
	NewTier     int       `json:"new_tier"`
	OldTierName string    `json:"old_tier_name"`
	NewTierName string    `json:"new_tier_name"`
	Promoted    bool      `json:"promoted"`
	DetectedAt  time.Time `json:"detected_at"`
}

// WebhookNotifier POSTs each event as JSON. Any non-2xx answer is an error;
// there are no retries.
type WebhookNotifier struct {
	url     string
	client  *fasthttp.Client
	timeout time.Duration
	tiers   *analytics.Tiers
	logger  zerolog.Logger
}

func NewWebhookNotifier(url string, tiers *analytics.Tiers, logger zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &fasthttp.Client{
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		timeout: constants.ExternalAPITimeout,
		tiers:   tiers,
		logger:  logger,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, event domain.TierChangeEvent) error {
	body, err := json.Marshal(webhookPayload{
		GroupID:     event.GroupID,
		SubjectID:   event.SubjectID,
		OldRating:   event.OldRating,
		NewRating:   event.NewRating,
		OldTier:     event.OldTier,
		NewTier:     event.NewTier,
		OldTierName: n.tiers.Name(event.OldTier),
		NewTierName: n.tiers.Name(event.NewTier),
		Promoted:    event.Promoted(),
		DetectedAt:  event.DetectedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline := time.Now().Add(n.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := n.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return fmt.Errorf("webhook returned status %d", status)
	}

	n.logger.Debug().Int64("subject_id", event.SubjectID).Msg("webhook delivered")
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event domain.TierChangeEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New always logs events and additionally posts them when a webhook URL is
// configured.
func New(cfg *config.Config, tiers *analytics.Tiers, logger zerolog.Logger) Notifier {
	notifiers := Multi{NewLogNotifier(tiers, logger)}
	if cfg.NotifyWebhookURL != "" {
		notifiers = append(notifiers, NewWebhookNotifier(cfg.NotifyWebhookURL, tiers, logger))
	}
	return notifiers
}
