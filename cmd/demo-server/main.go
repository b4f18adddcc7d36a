package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	ws "quizkit/adapters/websocket"
	"quizkit/catalog"
	"quizkit/core"
	"quizkit/quiz"
	"quizkit/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	hub := realtime.NewHub()
	cat := catalog.NewMemory(
		catalog.Game{Slug: "word-chase", Name: "Word Chase", Active: true},
		catalog.Game{Slug: "number-rush", Name: "Number Rush", Active: true},
	)
	svc := quiz.New(
		quiz.WithCatalog(cat),
		quiz.WithRealtime(hub),
	)

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/games/", func(w http.ResponseWriter, r *http.Request) {
		// routes: POST /games/{slug}/score?nickname=ada&score=100,
		//         GET /games/{slug}/ranking?limit=10, GET /games/{slug}/rank/{nickname}
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		slug := core.Slug(parts[1])
		switch r.Method {
		case http.MethodPost:
			if len(parts) >= 3 && parts[2] == "score" {
				nickname := core.Nickname(r.URL.Query().Get("nickname"))
				score, _ := strconv.ParseInt(r.URL.Query().Get("score"), 10, 64)
				res, err := svc.SubmitScore(ctx, slug, nickname, score)
				writeJSON(w, map[string]any{"accepted": res.Accepted, "rank": res.Rank, "total": res.Total, "err": errString(err)})
				return
			}
		case http.MethodGet:
			if len(parts) >= 3 && parts[2] == "ranking" {
				limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
				if limit <= 0 {
					limit = 10
				}
				top, err := svc.GetTopN(ctx, slug, limit)
				if err != nil {
					http.Error(w, err.Error(), 500)
					return
				}
				writeJSON(w, top)
				return
			}
			if len(parts) >= 4 && parts[2] == "rank" {
				rank, err := svc.GetRank(ctx, slug, core.Nickname(parts[3]))
				writeJSON(w, map[string]any{"rank": rank, "err": errString(err)})
				return
			}
		}
		http.NotFound(w, r)
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
