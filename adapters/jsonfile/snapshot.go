package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"quizkit/core"
	"quizkit/leaderboard"
)

// Snapshotter persists every board of an in-process store to a single JSON
// file and restores it on startup. Entries are written in rank order, so a
// replay through upsert-if-better reproduces the same tie-break order.
// Suitable for warm restarts and small deployments; there is no durability
// promise beyond the file itself.
type Snapshotter struct {
	path string
	mu   sync.Mutex
}

type fileEntry struct {
	Nickname string `json:"nickname"`
	Score    int64  `json:"score"`
}

func New(path string) *Snapshotter {
	return &Snapshotter{path: path}
}

// Save writes the current contents of every board. Atomic via rename.
func (s *Snapshotter) Save(_ context.Context, store *leaderboard.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := store.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	raw := make(map[string][]fileEntry, len(keys))
	for _, k := range keys {
		entries := store.Entries(k)
		rows := make([]fileEntry, len(entries))
		for i, e := range entries {
			rows[i] = fileEntry{Nickname: string(e.Nickname), Score: e.Score}
		}
		raw[string(k)] = rows
	}

	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load replays a snapshot into store. A missing file is not an error.
func (s *Snapshotter) Load(ctx context.Context, store *leaderboard.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var raw map[string][]fileEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for key, rows := range raw {
		for _, row := range rows {
			if _, err := store.UpsertIfBetter(ctx, core.Slug(key), core.Nickname(row.Nickname), row.Score); err != nil {
				return err
			}
		}
	}
	return nil
}
