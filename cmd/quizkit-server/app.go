package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"quizkit/adapters/jsonfile"
	redisAdapter "quizkit/adapters/redis"
	sqlxAdapter "quizkit/adapters/sqlx"
	"quizkit/api/httpapi"
	"quizkit/catalog"
	"quizkit/config"
	"quizkit/core"
	"quizkit/engine"
	"quizkit/integrations/webhook"
	"quizkit/leaderboard"
	"quizkit/quiz"
	"quizkit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Hub         *realtime.Hub
	Service     *engine.ScoreService
	Handler     http.Handler
	Server      *http.Server
	Snapshotter *jsonfile.Snapshotter
	Store       *leaderboard.Store
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	if path := os.Getenv("QUIZKIT_CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

// rankerSetup bundles the leaderboard backend with the pieces only the
// memory adapter has (a concrete store to snapshot).
type rankerSetup struct {
	ranker      engine.Ranker
	store       *leaderboard.Store
	snapshotter *jsonfile.Snapshotter
}

func provideRanker(ctx context.Context, cfg *config.Config) (rankerSetup, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		store := leaderboard.NewStore()
		setup := rankerSetup{ranker: store, store: store}
		if path := cfg.Storage.Snapshot.Path; path != "" {
			setup.snapshotter = jsonfile.New(path)
			if err := setup.snapshotter.Load(ctx, store); err != nil {
				return rankerSetup{}, fmt.Errorf("failed to load snapshot: %w", err)
			}
		}
		return setup, nil
	case "redis":
		ranker, err := redisAdapter.New(cfg.Storage.Redis)
		if err != nil {
			return rankerSetup{}, err
		}
		return rankerSetup{ranker: ranker}, nil
	default:
		return rankerSetup{}, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}

func provideSnapshotter(setup rankerSetup) *jsonfile.Snapshotter {
	return setup.snapshotter
}

func provideStore(setup rankerSetup) *leaderboard.Store {
	return setup.store
}

func provideCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, error) {
	var cat catalog.Catalog
	switch cfg.Catalog.Adapter {
	case "memory":
		cat = catalog.NewMemory()
	case "sql":
		sqlCat, err := sqlxAdapter.New(cfg.Catalog.SQL)
		if err != nil {
			return nil, err
		}
		cat = sqlCat
	default:
		return nil, fmt.Errorf("unknown catalog adapter: %s", cfg.Catalog.Adapter)
	}

	for _, seed := range cfg.Catalog.Seed {
		game := catalog.Game{Slug: core.Slug(seed.Slug), Name: seed.Name, Active: seed.Active}
		if err := cat.Put(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to seed game %q: %w", seed.Slug, err)
		}
	}
	return cat, nil
}

func provideService(cfg *config.Config, hub *realtime.Hub, setup rankerSetup, cat catalog.Catalog) *engine.ScoreService {
	opts := []quiz.Option{
		quiz.WithRanker(setup.ranker),
		quiz.WithCatalog(cat),
		quiz.WithRealtime(hub),
		quiz.WithDispatchMode(engine.DispatchAsync),
	}
	if len(cfg.Webhooks.Endpoints) > 0 {
		sink := webhook.New(cfg.Webhooks.Endpoints, webhook.WithSecret(cfg.Webhooks.Secret))
		opts = append(opts, quiz.WithEventSink(sink.OnEvent))
	}
	return quiz.New(opts...)
}

func provideHandler(svc *engine.ScoreService, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		AdminAPIKeys:     cfg.Security.AdminAPIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
		RequestTimeout:   cfg.Server.RequestTimeout,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}
