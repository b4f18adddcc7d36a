package analytics

import (
	"context"
	"sync"

	"quizkit/core"
	"quizkit/engine"
)

// GameStats counts submission outcomes for one game.
type GameStats struct {
	Submissions int64 `json:"submissions"`
	Accepted    int64 `json:"accepted"`
	Rejected    int64 `json:"rejected"`
	Resets      int64 `json:"resets"`
}

// Collector aggregates per-game submission counters off the event bus. It
// is a consumer like any other; losing it loses counters, never scores.
type Collector struct {
	mu      sync.RWMutex
	perGame map[core.Slug]*GameStats
	unsubs  []func()
}

func NewCollector() *Collector {
	return &Collector{perGame: map[core.Slug]*GameStats{}}
}

// Attach subscribes the collector to bus. Call Detach to stop counting.
func (c *Collector) Attach(bus *engine.EventBus) {
	c.unsubs = append(c.unsubs,
		bus.Subscribe(core.EventScoreAccepted, c.onEvent),
		bus.Subscribe(core.EventScoreRejected, c.onEvent),
		bus.Subscribe(core.EventLeaderboardReset, c.onEvent),
	)
}

// Detach removes all bus subscriptions.
func (c *Collector) Detach() {
	for _, u := range c.unsubs {
		u()
	}
	c.unsubs = nil
}

func (c *Collector) onEvent(_ context.Context, e core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.perGame[e.Game]
	if st == nil {
		st = &GameStats{}
		c.perGame[e.Game] = st
	}
	switch e.Type {
	case core.EventScoreAccepted:
		st.Submissions++
		st.Accepted++
	case core.EventScoreRejected:
		st.Submissions++
		st.Rejected++
	case core.EventLeaderboardReset:
		st.Resets++
	}
}

// Snapshot returns a copy of all counters.
func (c *Collector) Snapshot() map[core.Slug]GameStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[core.Slug]GameStats, len(c.perGame))
	for k, v := range c.perGame {
		out[k] = *v
	}
	return out
}

// Game returns counters for one game.
func (c *Collector) Game(slug core.Slug) GameStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if st := c.perGame[slug]; st != nil {
		return *st
	}
	return GameStats{}
}
