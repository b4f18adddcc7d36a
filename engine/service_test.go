package engine

import (
	"context"
	"errors"
	"testing"

	"quizkit/catalog"
	"quizkit/core"
	"quizkit/leaderboard"
)

func newTestService() *ScoreService {
	cat := catalog.NewMemory(
		catalog.Game{Slug: "word-chase", Name: "Word Chase", Active: true},
		catalog.Game{Slug: "retired", Name: "Retired Game", Active: false},
	)
	return NewScoreService(leaderboard.NewStore(), cat, NewEventBus(DispatchSync))
}

func TestSubmitScoreHappyPath(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	accepted := 0
	svc.Subscribe(core.EventScoreAccepted, func(ctx context.Context, e core.Event) { accepted++ })

	res, err := svc.SubmitScore(ctx, "word-chase", "ada", 100)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted || res.Rank != 1 || res.Total != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if accepted != 1 {
		t.Fatalf("expected 1 accepted event, got %d", accepted)
	}
}

func TestSubmitScoreIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	rejected := 0
	svc.Subscribe(core.EventScoreRejected, func(ctx context.Context, e core.Event) { rejected++ })

	first, err := svc.SubmitScore(ctx, "word-chase", "ada", 100)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.SubmitScore(ctx, "word-chase", "ada", 100)
	if err != nil {
		t.Fatal(err)
	}
	if second.Accepted {
		t.Fatal("resubmitting the same score must not be accepted")
	}
	if second.Rank != first.Rank || second.Total != first.Total {
		t.Fatalf("resubmission changed rank or count: %+v vs %+v", first, second)
	}
	if rejected != 1 {
		t.Fatalf("expected 1 rejected event, got %d", rejected)
	}
}

func TestSubmitScoreGameGating(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.SubmitScore(ctx, "no-such-game", "ada", 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown game: %v", err)
	}
	if _, err := svc.SubmitScore(ctx, "retired", "ada", 1); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("inactive game: %v", err)
	}
	// gating happens before the store is touched
	if n, _ := svc.ranker.Count(ctx, "retired"); n != 0 {
		t.Fatalf("store touched for gated game: count=%d", n)
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.SubmitScore(ctx, "word-chase", "", 1); !core.IsValidation(err) {
		t.Fatalf("empty nickname: %v", err)
	}
	if _, err := svc.SubmitScore(ctx, "word chase!", "ada", 1); !core.IsValidation(err) {
		t.Fatalf("malformed slug: %v", err)
	}
}

func TestGetTopNAndRank(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _ = svc.SubmitScore(ctx, "word-chase", "p1", 100)
	_, _ = svc.SubmitScore(ctx, "word-chase", "p2", 200)
	_, _ = svc.SubmitScore(ctx, "word-chase", "p1", 150)

	top, err := svc.GetTopN(ctx, "word-chase", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d", len(top))
	}
	if top[0] != (RankedEntry{"p2", 200, 1}) || top[1] != (RankedEntry{"p1", 150, 2}) {
		t.Fatalf("unexpected ranking: %#v", top)
	}

	r, err := svc.GetRank(ctx, "word-chase", "p1")
	if err != nil || r != 2 {
		t.Fatalf("rank p1 = %d %v", r, err)
	}
	if _, err := svc.GetRank(ctx, "word-chase", "never"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("rank of unknown player: %v", err)
	}

	// empty board is an empty result, not an error
	_ = svc.CreateGame(ctx, catalog.Game{Slug: "fresh", Name: "Fresh", Active: true})
	top, err = svc.GetTopN(ctx, "fresh", 10)
	if err != nil || len(top) != 0 {
		t.Fatalf("empty board: %#v %v", top, err)
	}
}

func TestGetTopNClampsPage(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	for i := 0; i < DefaultTopN+20; i++ {
		nick := core.Nickname(rune('a'+i%26)) + core.Nickname(rune('a'+i/26))
		_, _ = svc.SubmitScore(ctx, "word-chase", nick, int64(i))
	}
	top, err := svc.GetTopN(ctx, "word-chase", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != DefaultTopN {
		t.Fatalf("default page = %d, want %d", len(top), DefaultTopN)
	}
	top, _ = svc.GetTopN(ctx, "word-chase", DefaultTopN*10)
	if len(top) != DefaultTopN {
		t.Fatalf("cap = %d, want %d", len(top), DefaultTopN)
	}
}

func TestAdminOperations(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	events := map[core.EventType]int{}
	for _, typ := range []core.EventType{core.EventGameCreated, core.EventGameDeactivated, core.EventLeaderboardReset} {
		typ := typ
		svc.Subscribe(typ, func(ctx context.Context, e core.Event) { events[typ]++ })
	}

	if err := svc.CreateGame(ctx, catalog.Game{Slug: "New-Game", Name: "New Game", Active: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitScore(ctx, "new-game", "ada", 5); err != nil {
		t.Fatal(err)
	}
	if err := svc.ResetScores(ctx, "new-game"); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.ranker.Count(ctx, "new-game"); n != 0 {
		t.Fatalf("count after reset: %d", n)
	}
	if err := svc.SetGameActive(ctx, "new-game", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitScore(ctx, "new-game", "ada", 5); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("deactivated game should forbid: %v", err)
	}
	if err := svc.ResetScores(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("reset of unknown game: %v", err)
	}
	if events[core.EventGameCreated] != 1 || events[core.EventGameDeactivated] != 1 || events[core.EventLeaderboardReset] != 1 {
		t.Fatalf("unexpected event counts: %v", events)
	}
}

func TestGameInfo(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	g, err := svc.GameInfo(ctx, "word-chase")
	if err != nil || g.Name != "Word Chase" {
		t.Fatalf("got %+v %v", g, err)
	}
	if _, err := svc.GameInfo(ctx, "retired"); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("inactive info: %v", err)
	}
	if _, err := svc.GameInfo(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown info: %v", err)
	}
}
