package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizkit/core"
)

func TestClient_SubmitRankingRankInfoHealth(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api", WithAPIKey("k1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	result, err := client.SubmitScore(ctx, "word-chase", "ada", 150)
	if err != nil {
		t.Fatalf("submit score: %v", err)
	}
	if !result.Success || result.Rank == nil || *result.Rank != 1 || result.TotalPlayers != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	ranking, err := client.Ranking(ctx, "word-chase", 10)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(ranking) != 2 || ranking[0].Nickname != "ada" || ranking[0].Rank != 1 {
		t.Fatalf("unexpected ranking: %+v", ranking)
	}

	rank, err := client.Rank(ctx, "word-chase", "ada")
	if err != nil || rank != 1 {
		t.Fatalf("rank got %d err=%v", rank, err)
	}

	info, err := client.Info(ctx, "word-chase")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Slug != "word-chase" || !info.Active {
		t.Fatalf("unexpected info: %+v", info)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_InputValidation(t *testing.T) {
	client, err := NewClient("http://localhost:0/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	if _, err := client.SubmitScore(ctx, "", "ada", 1); !errors.Is(err, ErrEmptySlug) {
		t.Fatalf("expected ErrEmptySlug, got %v", err)
	}
	if _, err := client.SubmitScore(ctx, "word-chase", " ", 1); !errors.Is(err, ErrEmptyNickname) {
		t.Fatalf("expected ErrEmptyNickname, got %v", err)
	}
	if _, err := client.Rank(ctx, "word-chase", ""); !errors.Is(err, ErrEmptyNickname) {
		t.Fatalf("expected ErrEmptyNickname, got %v", err)
	}
}

func TestClient_SurfacesAPIErrors(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Info(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != core.EventScoreAccepted {
			t.Fatalf("unexpected event type: %s", evt.Type)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

// test server implementing the minimal API surface expected by the SDK.
func newTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","checks":{"catalog":"ok"}}`))
	})
	mux.HandleFunc("/api/games/", func(w http.ResponseWriter, r *http.Request) {
		// /api/games/{slug}/score|ranking|rank/{nickname}|info
		path := r.URL.Path[len("/api/games/"):]
		parts := strings.Split(path, "/")
		if len(parts) < 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		slug := parts[0]
		w.Header().Set("Content-Type", "application/json")
		switch {
		case parts[1] == "score" && r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"success":true,"rank":1,"totalPlayers":2}`))
		case parts[1] == "ranking" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"ranking":[{"nickname":"ada","score":150,"rank":1},{"nickname":"bob","score":100,"rank":2}]}`))
		case parts[1] == "rank" && len(parts) >= 3 && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"nickname":"` + parts[2] + `","rank":1}`))
		case parts[1] == "info" && r.Method == http.MethodGet:
			if slug == "missing" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"code":"not_found","message":"game not found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"slug":"` + slug + `","name":"Word Chase","active":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		evt := core.NewScoreAccepted("word-chase", "ada", 150)
		_ = conn.WriteJSON(evt)
	})

	return httptest.NewServer(mux)
}
