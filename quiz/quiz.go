package quiz

import (
	"context"

	"quizkit/catalog"
	"quizkit/core"
	"quizkit/engine"
	"quizkit/leaderboard"
	"quizkit/realtime"
)

func defaultRanker() engine.Ranker { return leaderboard.NewStore() }

// Option configures the score service builder.
type Option func(*config)

type config struct {
	ranker  engine.Ranker
	cat     catalog.Catalog
	mode    engine.DispatchMode
	hub     *realtime.Hub
	onEvent func(core.Event)
}

// WithRanker sets the leaderboard backend.
func WithRanker(r engine.Ranker) Option { return func(c *config) { c.ranker = r } }

// WithCatalog sets the game catalog.
func WithCatalog(cat catalog.Catalog) Option { return func(c *config) { c.cat = cat } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all score and game events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithEventSink registers a callback for every domain event, e.g. a webhook
// sink or a stats collector.
func WithEventSink(fn func(core.Event)) Option { return func(c *config) { c.onEvent = fn } }

var allEventTypes = []core.EventType{
	core.EventScoreAccepted,
	core.EventScoreRejected,
	core.EventGameCreated,
	core.EventGameDeactivated,
	core.EventLeaderboardReset,
}

// New builds a configured ScoreService. Defaults: in-process leaderboard
// store, empty in-memory catalog, async dispatch.
func New(opts ...Option) *engine.ScoreService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.ranker == nil {
		cfg.ranker = defaultRanker()
	}
	if cfg.cat == nil {
		cfg.cat = catalog.NewMemory()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewScoreService(cfg.ranker, cfg.cat, bus)
	for _, typ := range allEventTypes {
		typ := typ
		if cfg.hub != nil {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		}
		if cfg.onEvent != nil {
			bus.Subscribe(typ, func(_ context.Context, e core.Event) { cfg.onEvent(e) })
		}
	}
	return svc
}
