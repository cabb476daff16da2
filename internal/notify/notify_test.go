package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dota-tracker/internal/analytics"
	"dota-tracker/internal/config"
	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

func sampleEvent() domain.TierChangeEvent {
	return domain.TierChangeEvent{
		SubjectID:  86745912,
		GroupID:    "guild-1",
		OldRating:  3100,
		NewRating:  3300,
		OldTier:    51,
		NewTier:    52,
		DetectedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifier_Notify(t *testing.T) {
	var got webhookPayload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, analytics.DefaultTiers(), zerolog.Nop())
	if err := n.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if got.SubjectID != 86745912 || got.GroupID != "guild-1" || !got.Promoted {
		t.Errorf("payload = %+v", got)
	}
	if got.OldTierName != "Legend 1" || got.NewTierName != "Legend 2" {
		t.Errorf("tier names = %q -> %q", got.OldTierName, got.NewTierName)
	}
	if !got.DetectedAt.Equal(sampleEvent().DetectedAt) {
		t.Errorf("DetectedAt = %v", got.DetectedAt)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, analytics.DefaultTiers(), zerolog.Nop())
	if err := n.Notify(context.Background(), sampleEvent()); err == nil {
		t.Error("Notify() error = nil, want error for 502")
	}
}

type recordingNotifier struct {
	events []domain.TierChangeEvent
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, event domain.TierChangeEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func TestMulti_Notify(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("boom")}
	ok := &recordingNotifier{}

	err := Multi{failing, ok}.Notify(context.Background(), sampleEvent())
	if err == nil || err.Error() != "boom" {
		t.Errorf("Notify() error = %v, want boom", err)
	}
	if len(failing.events) != 1 || len(ok.events) != 1 {
		t.Errorf("deliveries = %d/%d, want 1/1", len(failing.events), len(ok.events))
	}
}

func TestNew(t *testing.T) {
	tiers := analytics.DefaultTiers()

	logOnly, ok := New(&config.Config{}, tiers, zerolog.Nop()).(Multi)
	if !ok || len(logOnly) != 1 {
		t.Errorf("New() without webhook = %#v, want one notifier", logOnly)
	}

	withHook, ok := New(&config.Config{NotifyWebhookURL: "http://127.0.0.1:1/hook"}, tiers, zerolog.Nop()).(Multi)
	if !ok || len(withHook) != 2 {
		t.Fatalf("New() with webhook = %#v, want two notifiers", withHook)
	}
	if _, ok := withHook[1].(*WebhookNotifier); !ok {
		t.Errorf("second notifier = %T, want *WebhookNotifier", withHook[1])
	}
}
