package leaderboard

import (
	"math/rand/v2"
	"sort"
	"testing"

	"quizkit/core"
)

func TestSkipListBasicOrder(t *testing.T) {
	s := NewSkipList()
	s.UpsertIfBetter("a", 10)
	s.UpsertIfBetter("b", 20)
	s.UpsertIfBetter("c", 15)
	top := s.TopN(3)
	if len(top) != 3 || top[0].Nickname != "b" || top[1].Nickname != "c" || top[2].Nickname != "a" {
		t.Fatalf("unexpected order: %#v", top)
	}
	res := s.UpsertIfBetter("a", 25)
	if !res.Updated || res.Rank != 1 {
		t.Fatalf("expected rank 1 after improvement, got %+v", res)
	}
	if top = s.TopN(1); top[0].Nickname != "a" {
		t.Fatalf("top should be a, got %#v", top)
	}
}

func TestSkipListBestScoreSurvives(t *testing.T) {
	s := NewSkipList()
	if res := s.UpsertIfBetter("p1", 100); !res.Updated || res.Rank != 1 {
		t.Fatalf("first insert: %+v", res)
	}
	if res := s.UpsertIfBetter("p1", 50); res.Updated {
		t.Fatalf("lower submission must be a no-op: %+v", res)
	}
	if res := s.UpsertIfBetter("p1", 100); res.Updated {
		t.Fatalf("equal submission must be a no-op: %+v", res)
	}
	if top := s.TopN(1); top[0].Score != 100 {
		t.Fatalf("stored score must remain 100, got %d", top[0].Score)
	}
	if s.Len() != 1 {
		t.Fatalf("count must stay 1, got %d", s.Len())
	}
}

func TestSkipListTieBreakBySequence(t *testing.T) {
	s := NewSkipList()
	s.UpsertIfBetter("first", 100)
	s.UpsertIfBetter("second", 100)
	s.UpsertIfBetter("third", 100)

	top := s.TopN(3)
	want := []core.Nickname{"first", "second", "third"}
	for i, n := range want {
		if top[i].Nickname != n {
			t.Fatalf("tie order wrong at %d: %#v", i, top)
		}
	}

	// an unrelated write must not flip the tie
	s.UpsertIfBetter("bystander", 7)
	top = s.TopN(3)
	for i, n := range want {
		if top[i].Nickname != n {
			t.Fatalf("tie order flipped after unrelated write: %#v", top)
		}
	}

	// improving to the tied score later ranks behind the incumbents
	s.UpsertIfBetter("bystander", 100)
	if r, ok := s.Rank("bystander"); !ok || r != 4 {
		t.Fatalf("late arrival at tied score should rank 4, got %d %v", r, ok)
	}
}

func TestSkipListScenario(t *testing.T) {
	// submit (p1,100), (p2,200), (p1,150)
	s := NewSkipList()
	s.UpsertIfBetter("p1", 100)
	s.UpsertIfBetter("p2", 200)
	s.UpsertIfBetter("p1", 150)

	top := s.TopN(2)
	if len(top) != 2 || top[0] != (Entry{"p2", 200}) || top[1] != (Entry{"p1", 150}) {
		t.Fatalf("unexpected top: %#v", top)
	}
	if r, ok := s.Rank("p1"); !ok || r != 2 {
		t.Fatalf("rank p1 = %d %v", r, ok)
	}
	if s.Len() != 2 {
		t.Fatalf("count = %d", s.Len())
	}
	if _, ok := s.Rank("never-seen"); ok {
		t.Fatal("unknown player must not have a rank")
	}
}

func TestSkipListTopNBounds(t *testing.T) {
	s := NewSkipList()
	s.UpsertIfBetter("a", 1)
	s.UpsertIfBetter("b", 2)
	if got := s.TopN(0); len(got) != 0 {
		t.Fatalf("n=0 must be empty, got %#v", got)
	}
	if got := s.TopN(10); len(got) != 2 {
		t.Fatalf("n beyond count must return all, got %#v", got)
	}
}

func TestSkipListRankImprovementNeverWorsens(t *testing.T) {
	s := NewSkipList()
	for i, sc := range []int64{50, 90, 10, 70, 30} {
		s.UpsertIfBetter(core.Nickname(rune('a'+i)), sc)
	}
	before, _ := s.Rank("c")
	s.UpsertIfBetter("c", 60)
	after, _ := s.Rank("c")
	if after > before {
		t.Fatalf("rank worsened after improvement: %d -> %d", before, after)
	}
}

// Randomized cross-check of skip list ranks and order against a sorted
// replay of the same submissions.
func TestSkipListAgainstReferenceModel(t *testing.T) {
	s := NewSkipList()
	rng := rand.New(rand.NewPCG(1, 2))

	type ref struct {
		nick  core.Nickname
		score int64
		seq   int
	}
	best := map[core.Nickname]*ref{}
	seq := 0

	for i := 0; i < 2000; i++ {
		nick := core.Nickname(rune('A' + rng.IntN(40)))
		score := int64(rng.IntN(50))
		s.UpsertIfBetter(nick, score)
		if cur, ok := best[nick]; !ok || score > cur.score {
			best[nick] = &ref{nick: nick, score: score, seq: seq}
			seq++
		}
	}

	sorted := make([]*ref, 0, len(best))
	for _, r := range best {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].score == sorted[j].score {
			return sorted[i].seq < sorted[j].seq
		}
		return sorted[i].score > sorted[j].score
	})

	if s.Len() != len(sorted) {
		t.Fatalf("length mismatch: %d vs %d", s.Len(), len(sorted))
	}
	got := s.TopN(len(sorted))
	for i, want := range sorted {
		if got[i].Nickname != want.nick || got[i].Score != want.score {
			t.Fatalf("order mismatch at %d: got %+v want %+v", i, got[i], want)
		}
		if r, ok := s.Rank(want.nick); !ok || r != i+1 {
			t.Fatalf("rank mismatch for %s: got %d want %d", want.nick, r, i+1)
		}
	}
}
