package catalog

import (
	"context"
	"errors"
	"testing"

	"quizkit/core"
)

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(Game{Slug: "word-chase", Name: "Word Chase", Active: true})

	g, err := c.Get(ctx, "word-chase")
	if err != nil || g.Name != "Word Chase" {
		t.Fatalf("got %+v %v", g, err)
	}
	if _, err := c.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := c.Put(ctx, Game{Slug: " Number-Run ", Name: "Number Run", Active: true}); err != nil {
		t.Fatal(err)
	}
	if g, err = c.Get(ctx, "number-run"); err != nil || !g.Active {
		t.Fatalf("slug should be normalized on put: %+v %v", g, err)
	}

	if err := c.SetActive(ctx, "number-run", false); err != nil {
		t.Fatal(err)
	}
	if g, _ = c.Get(ctx, "number-run"); g.Active {
		t.Fatal("game should be inactive")
	}
	if err := c.SetActive(ctx, "missing", true); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	games, err := c.List(ctx)
	if err != nil || len(games) != 2 {
		t.Fatalf("list: %#v %v", games, err)
	}
	if games[0].Slug > games[1].Slug {
		t.Fatal("list should be sorted by slug")
	}
}

func TestMemoryCatalogPutValidation(t *testing.T) {
	c := NewMemory()
	err := c.Put(context.Background(), Game{Slug: "bad slug!"})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
