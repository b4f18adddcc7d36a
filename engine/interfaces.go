package engine

import (
	"context"

	"quizkit/core"
	"quizkit/leaderboard"
)

// Ranker abstracts the per-game ordered score sets. The in-process
// leaderboard.Store is the reference implementation; adapters/redis
// delegates the same contract to a sorted-set server.
type Ranker interface {
	UpsertIfBetter(ctx context.Context, key core.Slug, nickname core.Nickname, score int64) (leaderboard.UpdateResult, error)
	Rank(ctx context.Context, key core.Slug, nickname core.Nickname) (int, error)
	TopN(ctx context.Context, key core.Slug, n int) ([]leaderboard.Entry, error)
	Count(ctx context.Context, key core.Slug) (int, error)
	Reset(ctx context.Context, key core.Slug) error
}

var _ Ranker = (*leaderboard.Store)(nil)
