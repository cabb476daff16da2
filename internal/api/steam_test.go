package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dota-tracker/internal/config"
	"dota-tracker/internal/domain"
)

func newSteamTestClient(t *testing.T, handler http.HandlerFunc) *SteamClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewSteamClient(&config.Config{SteamBaseURL: server.URL, SteamAPIKey: "k"}, nil)
}

func TestSteamClient_NoAPIKey(t *testing.T) {
	client := NewSteamClient(&config.Config{SteamBaseURL: "http://127.0.0.1:1"}, nil)

	if _, err := client.FetchProfile(context.Background(), 1); !errors.Is(err, domain.ErrTransient) {
		t.Errorf("FetchProfile() error = %v, want transient", err)
	}
	if _, err := client.FetchMatchHistory(context.Background(), 1, 10); !errors.Is(err, domain.ErrTransient) {
		t.Errorf("FetchMatchHistory() error = %v, want transient", err)
	}
}

func TestSteamClient_FetchProfile(t *testing.T) {
	client := newSteamTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("steamids"); got != "76561198083260442" {
			t.Errorf("steamids = %q", got)
		}
		if r.URL.Query().Get("key") != "k" || r.URL.Query().Get("format") != "json" {
			t.Errorf("missing key/format: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"response": {"players": [{
			"steamid": "76561198083260442", "personaname": "Arteezy",
			"avatarfull": "https://steam/avatar.jpg", "profileurl": "https://steam/id/rtz",
			"communityvisibilitystate": 3
		}]}}`))
	})

	profile, err := client.FetchProfile(context.Background(), 122994714)
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}
	if profile.AccountID != 122994714 {
		t.Errorf("AccountID = %d", profile.AccountID)
	}
	if profile.DisplayName != "Arteezy" {
		t.Errorf("DisplayName = %q", profile.DisplayName)
	}
	if profile.Public == nil || !*profile.Public {
		t.Errorf("Public = %v, want true", profile.Public)
	}
	if profile.Source != domain.ProvenanceSecondary {
		t.Errorf("Source = %s", profile.Source)
	}
}

func TestSteamClient_FetchProfilePrivateAndMissing(t *testing.T) {
	client := newSteamTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("steamids") == "76561197960265729" {
			w.Write([]byte(`{"response": {"players": [{"steamid": "76561197960265729", "personaname": "x", "communityvisibilitystate": 1}]}}`))
			return
		}
		w.Write([]byte(`{"response": {"players": []}}`))
	})

	profile, err := client.FetchProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}
	if profile.Public == nil || *profile.Public {
		t.Errorf("Public = %v, want false", profile.Public)
	}

	if _, err := client.FetchProfile(context.Background(), 2); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FetchProfile() error = %v, want not found", err)
	}
}

func TestSteamClient_FetchMatchHistory(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []int64
		wantErr error
	}{
		{
			name: "ok",
			body: `{"result": {"status": 1, "matches": [{"match_id": 30}, {"match_id": 20}, {"match_id": 10}]}}`,
			want: []int64{30, 20, 10},
		},
		{
			name:    "private",
			body:    `{"result": {"status": 15, "statusDetail": "Cannot get match history for a user that hasn't allowed it"}}`,
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unexpected status",
			body:    `{"result": {"status": 8}}`,
			wantErr: domain.ErrTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newSteamTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("account_id") != "42" || r.URL.Query().Get("matches_requested") != "3" {
					t.Errorf("query = %s", r.URL.RawQuery)
				}
				w.Write([]byte(tt.body))
			})

			ids, err := client.FetchMatchHistory(context.Background(), 42, 3)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchMatchHistory() error = %v", err)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ids[%d] = %d, want %d", i, ids[i], tt.want[i])
				}
			}
		})
	}
}

func TestSteamClient_FetchMatchDetail(t *testing.T) {
	client := newSteamTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("match_id") == "404" {
			w.Write([]byte(`{"result": {"error": "Match ID not found"}}`))
			return
		}
		w.Write([]byte(`{"result": {"match_id": 7, "start_time": 1700000000, "radiant_win": true, "players": [
			{"account_id": 42, "player_slot": 130, "hero_id": 14, "kills": 4, "deaths": 6, "assists": 20, "gold_per_min": 300, "xp_per_min": 400},
			{"account_id": 4294967295, "player_slot": 0, "hero_id": 1}
		]}}`))
	})

	detail, err := client.FetchMatchDetail(context.Background(), 7)
	if err != nil {
		t.Fatalf("FetchMatchDetail() error = %v", err)
	}
	if !detail.FirstTeamWon || detail.StartTime != 1700000000 {
		t.Errorf("detail = %+v", detail)
	}
	if len(detail.Participants) != 2 || detail.Participants[0].AccountID != 42 || detail.Participants[0].PlayerSlot != 130 {
		t.Errorf("participants = %+v", detail.Participants)
	}

	if _, err := client.FetchMatchDetail(context.Background(), 404); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FetchMatchDetail(404) error = %v, want not found", err)
	}
}
