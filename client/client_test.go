package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/totegamma/lobbywatch"
)

func TestGetPlayerSummariesBatches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ISteamUser/GetPlayerSummaries/v2/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("missing api key")
		}
		ids := strings.Split(r.URL.Query().Get("steamids"), ",")
		if len(ids) > MaxBatch {
			t.Errorf("batch too large: %d", len(ids))
		}
		calls.Add(1)

		players := []PlayerSummary{}
		for _, id := range ids {
			players = append(players, PlayerSummary{SteamID: id, PersonaName: "p" + id})
		}
		var resp summariesResponse
		resp.Response.Players = players
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New("secret", srv.URL, time.Minute)

	ids := make([]lobbywatch.SteamID, 150)
	for i := range ids {
		ids[i] = lobbywatch.SteamID(76561197960265728 + uint64(i) + 1)
	}

	summaries, err := c.GetPlayerSummaries(context.Background(), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 150 {
		t.Fatalf("expected 150 summaries, got %d", len(summaries))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGetPlayerBansSkipsMissing(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(bansResponse{Players: []PlayerBans{
			{SteamID: "76561197960287930", NumberOfVACBans: 2, DaysSinceLastBan: 10},
		}})
	}))
	defer srv.Close()

	c := New("secret", srv.URL, time.Minute)
	known := lobbywatch.SteamID(76561197960287930)
	unknown := lobbywatch.SteamID(76561197960287931)

	bans, err := c.GetPlayerBans(context.Background(), []lobbywatch.SteamID{known, unknown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bans) != 1 || bans[0].NumberOfVACBans != 2 {
		t.Fatalf("unexpected bans: %+v", bans)
	}

	// the unknown id is remembered and no request is made for it alone
	bans, err = c.GetPlayerBans(context.Background(), []lobbywatch.SteamID{unknown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bans) != 0 {
		t.Fatalf("expected no bans, got %+v", bans)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestHttpRequestErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New("secret", srv.URL, time.Minute)
	if _, err := c.GetPlayerSummaries(context.Background(), []lobbywatch.SteamID{1}); err == nil {
		t.Fatal("expected error on 403")
	}

	noKey := New("", srv.URL, time.Minute)
	if _, err := noKey.GetPlayerBans(context.Background(), []lobbywatch.SteamID{1}); err == nil {
		t.Fatal("expected error without api key")
	}
}
