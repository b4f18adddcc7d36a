package analytics

import (
	"context"
	"testing"

	"quizkit/core"
	"quizkit/engine"
)

func TestCollectorCounts(t *testing.T) {
	bus := engine.NewEventBus(engine.DispatchSync)
	defer bus.Close()

	c := NewCollector()
	c.Attach(bus)

	ctx := context.Background()
	bus.Publish(ctx, core.NewScoreAccepted("g", "ada", 10))
	bus.Publish(ctx, core.NewScoreRejected("g", "ada", 5))
	bus.Publish(ctx, core.NewScoreAccepted("other", "bob", 1))
	bus.Publish(ctx, core.NewLeaderboardReset("g"))

	st := c.Game("g")
	if st.Submissions != 2 || st.Accepted != 1 || st.Rejected != 1 || st.Resets != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if got := c.Game("other"); got.Accepted != 1 {
		t.Fatalf("unexpected stats for other: %+v", got)
	}
	if len(c.Snapshot()) != 2 {
		t.Fatal("snapshot should cover both games")
	}

	c.Detach()
	bus.Publish(ctx, core.NewScoreAccepted("g", "ada", 99))
	if c.Game("g").Submissions != 2 {
		t.Fatal("collector kept counting after detach")
	}
}

func TestCollectorUnknownGameIsZero(t *testing.T) {
	c := NewCollector()
	if st := c.Game("never"); st != (GameStats{}) {
		t.Fatalf("expected zero stats, got %+v", st)
	}
}
