package sim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"evadvisor/internal/model"
)

func TestClientPlay(t *testing.T) {
	var gotPath, gotKey string
	var gotInput model.GameInput
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotInput); err != nil {
			t.Errorf("decode input: %v", err)
		}
		json.NewEncoder(w).Encode(model.Snapshot{Score: 42.5})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAPIKey("secret"), WithRateLimit(1000))
	snap, err := c.Play(context.Background(), model.GameInput{
		MapName:    "gothenburg",
		PlayToTick: 7,
		Ticks: []model.TickInput{{Tick: 0, CustomerRecommendations: []model.Recommendation{
			{CustomerID: "c1"},
		}}},
	})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if snap.Score != 42.5 {
		t.Fatalf("score: got %v, want 42.5", snap.Score)
	}
	if gotPath != "/api/game" {
		t.Fatalf("path: got %s", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("api key: got %q", gotKey)
	}
	if gotInput.PlayToTick != 7 || gotInput.MapName != "gothenburg" {
		t.Fatalf("input: got %+v", gotInput)
	}
}

func TestClientPlayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad map", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRateLimit(1000))
	if _, err := c.Play(context.Background(), model.GameInput{}); err == nil {
		t.Fatal("expected error on 400")
	}
}

func TestClientPlayBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRateLimit(1000))
	if _, err := c.Play(context.Background(), model.GameInput{}); err == nil {
		t.Fatal("expected error on undecodable body")
	}
}

func TestClientPlayContextCancel(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", WithRateLimit(1000))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Play(ctx, model.GameInput{}); err == nil {
		t.Fatal("expected error on canceled context")
	}
}
