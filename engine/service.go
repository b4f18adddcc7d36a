package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"quizkit/catalog"
	"quizkit/core"
)

// DefaultTopN is the page size for ranking queries when the caller does not
// ask for one; it is also the cap.
const DefaultTopN = 100

// Result is the outcome of a score submission. Rank and Total describe the
// board after the call whether or not the submission was accepted.
type Result struct {
	Accepted bool
	Rank     int
	Total    int
}

// RankedEntry is a scoreboard row with its 1-based rank materialized.
type RankedEntry struct {
	Nickname core.Nickname `json:"nickname"`
	Score    int64         `json:"score"`
	Rank     int           `json:"rank"`
}

// ScoreService translates external submission and ranking requests into
// Ranker calls. It owns no leaderboard state of its own; every read and
// write goes through the Ranker, which is what makes concurrent access safe.
type ScoreService struct {
	ranker  Ranker
	catalog catalog.Catalog
	bus     *EventBus
	logger  *slog.Logger
}

func NewScoreService(ranker Ranker, cat catalog.Catalog, bus *EventBus) *ScoreService {
	if ranker == nil || cat == nil || bus == nil {
		panic("NewScoreService requires non-nil ranker, catalog, and bus")
	}
	return &ScoreService{ranker: ranker, catalog: cat, bus: bus, logger: slog.Default()}
}

// Subscribe convenience method.
func (s *ScoreService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *ScoreService) Close() { s.bus.Close() }

// resolveActive normalizes slug and gates on the catalog: unknown games are
// core.ErrNotFound, inactive ones core.ErrForbidden.
func (s *ScoreService) resolveActive(ctx context.Context, slug core.Slug) (core.Slug, error) {
	slug, err := core.NormalizeSlug(slug)
	if err != nil {
		return "", err
	}
	g, err := s.catalog.Get(ctx, slug)
	if err != nil {
		return "", err
	}
	if !g.Active {
		return "", core.ErrForbidden
	}
	return slug, nil
}

// SubmitScore validates the request shape, gates on the catalog, and applies
// upsert-if-better. A submission that does not beat the player's stored best
// is a normal Accepted=false outcome, not an error.
func (s *ScoreService) SubmitScore(ctx context.Context, slug core.Slug, nickname core.Nickname, score int64) (Result, error) {
	nickname, err := core.NormalizeNickname(nickname)
	if err != nil {
		return Result{}, err
	}
	slug, err = s.resolveActive(ctx, slug)
	if err != nil {
		return Result{}, err
	}

	res, err := s.ranker.UpsertIfBetter(ctx, slug, nickname, score)
	if err != nil {
		return Result{}, fmt.Errorf("submit %s/%s: %w", slug, nickname, err)
	}
	if res.Rank < 1 {
		// The player must be rankable immediately after its own upsert.
		iv := &core.InvariantViolation{Op: "submit", Detail: fmt.Sprintf("rank %d after upsert for %s/%s", res.Rank, slug, nickname)}
		s.logger.Error("leaderboard invariant violated", "game", slug, "nickname", nickname, "rank", res.Rank)
		return Result{}, iv
	}
	total, err := s.ranker.Count(ctx, slug)
	if err != nil {
		return Result{}, fmt.Errorf("count %s: %w", slug, err)
	}

	if res.Updated {
		s.bus.Publish(ctx, core.NewScoreAccepted(slug, nickname, score))
	} else {
		s.bus.Publish(ctx, core.NewScoreRejected(slug, nickname, score))
	}
	return Result{Accepted: res.Updated, Rank: res.Rank, Total: total}, nil
}

// GetTopN returns up to n ranked entries, n defaulting to and capped at
// DefaultTopN. An empty board is an empty result, not an error.
func (s *ScoreService) GetTopN(ctx context.Context, slug core.Slug, n int) ([]RankedEntry, error) {
	slug, err := s.resolveActive(ctx, slug)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > DefaultTopN {
		n = DefaultTopN
	}
	entries, err := s.ranker.TopN(ctx, slug, n)
	if err != nil {
		return nil, fmt.Errorf("topN %s: %w", slug, err)
	}
	out := make([]RankedEntry, len(entries))
	for i, e := range entries {
		out[i] = RankedEntry{Nickname: e.Nickname, Score: e.Score, Rank: i + 1}
	}
	return out, nil
}

// GetRank returns the 1-based rank of nickname, or core.ErrNotFound.
func (s *ScoreService) GetRank(ctx context.Context, slug core.Slug, nickname core.Nickname) (int, error) {
	nickname, err := core.NormalizeNickname(nickname)
	if err != nil {
		return 0, err
	}
	slug, err = s.resolveActive(ctx, slug)
	if err != nil {
		return 0, err
	}
	return s.ranker.Rank(ctx, slug, nickname)
}

// GameInfo resolves slug with the same 404/403 rules as submissions.
func (s *ScoreService) GameInfo(ctx context.Context, slug core.Slug) (catalog.Game, error) {
	slug, err := core.NormalizeSlug(slug)
	if err != nil {
		return catalog.Game{}, err
	}
	g, err := s.catalog.Get(ctx, slug)
	if err != nil {
		return catalog.Game{}, err
	}
	if !g.Active {
		return catalog.Game{}, core.ErrForbidden
	}
	return g, nil
}

// Admin surface. These bypass the activity gate on purpose.

// CreateGame inserts or replaces a catalog entry.
func (s *ScoreService) CreateGame(ctx context.Context, game catalog.Game) error {
	slug, err := core.NormalizeSlug(game.Slug)
	if err != nil {
		return err
	}
	game.Slug = slug
	if err := s.catalog.Put(ctx, game); err != nil {
		return err
	}
	s.bus.Publish(ctx, core.NewGameCreated(game.Slug))
	return nil
}

// SetGameActive toggles whether a game accepts submissions.
func (s *ScoreService) SetGameActive(ctx context.Context, slug core.Slug, active bool) error {
	slug, err := core.NormalizeSlug(slug)
	if err != nil {
		return err
	}
	if err := s.catalog.SetActive(ctx, slug, active); err != nil {
		return err
	}
	if !active {
		s.bus.Publish(ctx, core.NewGameDeactivated(slug))
	}
	return nil
}

// ResetScores drops a game's board. The only path that removes entries.
func (s *ScoreService) ResetScores(ctx context.Context, slug core.Slug) error {
	slug, err := core.NormalizeSlug(slug)
	if err != nil {
		return err
	}
	if _, err := s.catalog.Get(ctx, slug); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return fmt.Errorf("reset %s: %w", slug, err)
	}
	if err := s.ranker.Reset(ctx, slug); err != nil {
		return fmt.Errorf("reset %s: %w", slug, err)
	}
	s.bus.Publish(ctx, core.NewLeaderboardReset(slug))
	return nil
}

// ListGames returns the catalog for the admin surface.
func (s *ScoreService) ListGames(ctx context.Context) ([]catalog.Game, error) {
	return s.catalog.List(ctx)
}
