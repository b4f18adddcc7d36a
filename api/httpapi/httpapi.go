package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	wsadapter "quizkit/adapters/websocket"
	"quizkit/catalog"
	"quizkit/core"
	"quizkit/engine"
	"quizkit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// AdminAPIKeys guards the /admin subtree via Authorization: Bearer or
	// X-API-Key. With no keys configured the admin surface is disabled.
	AdminAPIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// RequestTimeout bounds each request; zero means 5s.
	RequestTimeout time.Duration
}

// NewMux builds an http.Handler exposing the quiz leaderboard REST API and
// the admin WebSocket stream.
// Routes:
//   - POST   {prefix}/games/{slug}/score
//   - GET    {prefix}/games/{slug}/ranking?limit=N
//   - GET    {prefix}/games/{slug}/rank/{nickname}
//   - GET    {prefix}/games/{slug}/info
//   - GET    {prefix}/admin/games
//   - POST   {prefix}/admin/games
//   - PATCH  {prefix}/admin/games/{slug}/active
//   - DELETE {prefix}/admin/games/{slug}/scores
//   - GET    {prefix}/healthz
//   - WS     {prefix}/ws
func NewMux(svc *engine.ScoreService, hub *realtime.Hub, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	mux := http.NewServeMux()

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, svc)
	})

	// WebSocket events
	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/games/"), func(w http.ResponseWriter, r *http.Request) {
		gamesHandler(w, r, svc, opts)
	})

	adminHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminGamesHandler(w, r, svc, opts)
	})
	if len(opts.AdminAPIKeys) > 0 {
		mux.Handle(withPrefix(opts.PathPrefix, "/admin/"), withAPIKeyAuth(adminHandler, opts.AdminAPIKeys))
	} else {
		mux.HandleFunc(withPrefix(opts.PathPrefix, "/admin/"), func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusForbidden, "admin_disabled", "no admin API keys configured", nil)
		})
	}

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

type submitRequest struct {
	Nickname string `json:"nickname"`
	Score    int64  `json:"score"`
}

type submitResponse struct {
	Success      bool `json:"success"`
	Rank         *int `json:"rank"`
	TotalPlayers int  `json:"totalPlayers"`
}

func gamesHandler(w http.ResponseWriter, r *http.Request, svc *engine.ScoreService, opts Options) {
	ctx, cancel := context.WithTimeout(r.Context(), opts.RequestTimeout)
	defer cancel()

	path := strings.TrimPrefix(r.URL.Path, opts.PathPrefix)
	parts := split(path, '/')
	if len(parts) < 3 || parts[0] != "games" {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		return
	}
	slug := core.Slug(parts[1])

	switch {
	case r.Method == http.MethodPost && parts[2] == "score" && len(parts) == 3:
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// catches non-integer scores too
			writeError(w, http.StatusBadRequest, "invalid_body", "body must be JSON with string nickname and integer score", nil)
			return
		}
		res, err := svc.SubmitScore(ctx, slug, core.Nickname(req.Nickname), req.Score)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		rank := res.Rank
		writeJSON(w, submitResponse{Success: res.Accepted, Rank: &rank, TotalPlayers: res.Total})

	case r.Method == http.MethodGet && parts[2] == "ranking" && len(parts) == 3:
		n := engine.DefaultTopN
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
				return
			}
			n = parsed
		}
		entries, err := svc.GetTopN(ctx, slug, n)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		if entries == nil {
			entries = []engine.RankedEntry{}
		}
		writeJSON(w, map[string]any{"ranking": entries})

	case r.Method == http.MethodGet && parts[2] == "rank" && len(parts) == 4:
		nickname := core.Nickname(parts[3])
		rank, err := svc.GetRank(ctx, slug, nickname)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, map[string]any{"nickname": nickname, "rank": rank})

	case r.Method == http.MethodGet && parts[2] == "info" && len(parts) == 3:
		g, err := svc.GameInfo(ctx, slug)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, g)

	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	}
}

func adminGamesHandler(w http.ResponseWriter, r *http.Request, svc *engine.ScoreService, opts Options) {
	ctx, cancel := context.WithTimeout(r.Context(), opts.RequestTimeout)
	defer cancel()

	path := strings.TrimPrefix(r.URL.Path, opts.PathPrefix)
	parts := split(path, '/')
	if len(parts) < 2 || parts[0] != "admin" || parts[1] != "games" {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		return
	}

	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		games, err := svc.ListGames(ctx)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, map[string]any{"games": games})

	case r.Method == http.MethodPost && len(parts) == 2:
		var g catalog.Game
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "body must be a game object", nil)
			return
		}
		if err := svc.CreateGame(ctx, g); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})

	case r.Method == http.MethodPatch && len(parts) == 4 && parts[3] == "active":
		var body struct {
			Active bool `json:"active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "body must contain an active flag", nil)
			return
		}
		if err := svc.SetGameActive(ctx, core.Slug(parts[2]), body.Active); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})

	case r.Method == http.MethodDelete && len(parts) == 4 && parts[3] == "scores":
		if err := svc.ResetScores(ctx, core.Slug(parts[2])); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	}
}

// Helpers

// healthCheck verifies the catalog and ranker respond.
func healthCheck(w http.ResponseWriter, r *http.Request, svc *engine.ScoreService) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{"catalog": "ok"},
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := svc.ListGames(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["catalog"] = "failed"
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func split(p string, sep rune) []string {
	var parts []string
	cur := make([]rune, 0, len(p))
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for _, r := range p {
		if r == sep {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// writeMappedError translates error kinds into the one response shape each
// maps to. Internal detail never crosses the wire.
func writeMappedError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "game or player not found", nil)
	case errors.Is(err, core.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "game is not accepting submissions", nil)
	case core.IsTransient(err):
		writeError(w, http.StatusServiceUnavailable, "transient", "temporary failure, retry the request", nil)
	case core.IsInvariantViolation(err):
		slog.Error("invariant violation surfaced to API", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error", nil)
	default:
		slog.Error("unhandled error in API", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-API-Key")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a simple token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}
