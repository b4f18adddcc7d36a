package catalog

import (
	"context"
	"sort"
	"sync"

	"quizkit/core"
)

// Game is one playable entry in the site's catalog. Inactive games remain
// visible to the admin surface but reject score submissions.
type Game struct {
	Slug   core.Slug `json:"slug"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

// Catalog resolves slugs to games. Get returns core.ErrNotFound for unknown
// slugs; activity gating is the caller's concern so that 404 and 403 stay
// distinguishable.
type Catalog interface {
	Get(ctx context.Context, slug core.Slug) (Game, error)
	Put(ctx context.Context, game Game) error
	SetActive(ctx context.Context, slug core.Slug, active bool) error
	List(ctx context.Context) ([]Game, error)
}

// Memory is a concurrent in-memory Catalog, seeded at construction.
type Memory struct {
	mu    sync.RWMutex
	games map[core.Slug]Game
}

func NewMemory(seed ...Game) *Memory {
	m := &Memory{games: make(map[core.Slug]Game, len(seed))}
	for _, g := range seed {
		m.games[g.Slug] = g
	}
	return m
}

func (m *Memory) Get(_ context.Context, slug core.Slug) (Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[slug]
	if !ok {
		return Game{}, core.ErrNotFound
	}
	return g, nil
}

func (m *Memory) Put(_ context.Context, game Game) error {
	slug, err := core.NormalizeSlug(game.Slug)
	if err != nil {
		return err
	}
	game.Slug = slug
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[slug] = game
	return nil
}

func (m *Memory) SetActive(_ context.Context, slug core.Slug, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[slug]
	if !ok {
		return core.ErrNotFound
	}
	g.Active = active
	m.games[slug] = g
	return nil
}

func (m *Memory) List(_ context.Context) ([]Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

var _ Catalog = (*Memory)(nil)
