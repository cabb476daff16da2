package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("opendota", "ok")
	m.ObserveRequest("opendota", "ok")
	m.ObserveRequest("steam", "transient")
	m.TierChange(true)
	m.TierChange(false)
	m.TierChange(true)
	m.SubjectSkipped("fetch_failed")
	m.TickSkipped()

	if got := testutil.ToFloat64(m.providerRequests.WithLabelValues("opendota", "ok")); got != 2 {
		t.Errorf("opendota ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.providerRequests.WithLabelValues("steam", "transient")); got != 1 {
		t.Errorf("steam transient = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tierChanges.WithLabelValues("promotion")); got != 2 {
		t.Errorf("promotions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.subjectsSkipped.WithLabelValues("fetch_failed")); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ticksSkipped); got != 1 {
		t.Errorf("ticks skipped = %v, want 1", got)
	}
}

func TestMetrics_RateLimit(t *testing.T) {
	m := New()

	m.ObserveRateLimit("opendota", 60, 59)
	m.ObserveRateLimit("opendota", -1, 40)

	if got := testutil.ToFloat64(m.rateLimit.WithLabelValues("opendota")); got != 60 {
		t.Errorf("limit = %v, want 60 kept from the first response", got)
	}
	if got := testutil.ToFloat64(m.rateRemaining.WithLabelValues("opendota")); got != 40 {
		t.Errorf("remaining = %v, want 40", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest("opendota", "not_found")
	m.PollDuration(3 * time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`dota_tracker_provider_requests_total{outcome="not_found",source="opendota"} 1`,
		`dota_tracker_poll_tick_duration_seconds_count 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
