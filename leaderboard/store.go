package leaderboard

import (
	"context"
	"sync"

	"quizkit/core"
)

// Store owns one board per game key. Boards are created lazily on the first
// submission and never dropped by normal operation; Reset exists for the
// admin path only. Concurrency control is scoped per key, so submissions to
// different games never contend; the map itself has a separate lock that is
// never held across a board mutation.
type Store struct {
	mu     sync.RWMutex
	boards map[core.Slug]*SkipList
}

func NewStore() *Store {
	return &Store{boards: map[core.Slug]*SkipList{}}
}

// board returns the board for key, creating it when create is set.
func (s *Store) board(key core.Slug, create bool) *SkipList {
	s.mu.RLock()
	b := s.boards[key]
	s.mu.RUnlock()
	if b != nil || !create {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b = s.boards[key]; b == nil {
		b = NewSkipList()
		s.boards[key] = b
	}
	return b
}

// UpsertIfBetter records score for nickname under key, keeping only the
// player's best. The context is accepted for interface symmetry with
// networked rankers; the in-process store performs no I/O.
func (s *Store) UpsertIfBetter(_ context.Context, key core.Slug, nickname core.Nickname, score int64) (UpdateResult, error) {
	nickname, err := core.NormalizeNickname(nickname)
	if err != nil {
		return UpdateResult{}, err
	}
	return s.board(key, true).UpsertIfBetter(nickname, score), nil
}

// Rank returns the 1-based rank of nickname under key, or core.ErrNotFound.
func (s *Store) Rank(_ context.Context, key core.Slug, nickname core.Nickname) (int, error) {
	b := s.board(key, false)
	if b == nil {
		return 0, core.ErrNotFound
	}
	rank, ok := b.Rank(nickname)
	if !ok {
		return 0, core.ErrNotFound
	}
	return rank, nil
}

// TopN returns at most n entries under key, highest first. A pure read: an
// unseen key yields an empty result without creating a board.
func (s *Store) TopN(_ context.Context, key core.Slug, n int) ([]Entry, error) {
	b := s.board(key, false)
	if b == nil {
		return nil, nil
	}
	return b.TopN(n), nil
}

// Count returns the number of distinct players under key.
func (s *Store) Count(_ context.Context, key core.Slug) (int, error) {
	b := s.board(key, false)
	if b == nil {
		return 0, nil
	}
	return b.Len(), nil
}

// Reset drops every entry under key. Administrative path only.
func (s *Store) Reset(_ context.Context, key core.Slug) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boards, key)
	return nil
}

// Keys lists every key with a board, for snapshotting.
func (s *Store) Keys() []core.Slug {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]core.Slug, 0, len(s.boards))
	for k := range s.boards {
		keys = append(keys, k)
	}
	return keys
}

// Entries returns every entry under key in rank order.
func (s *Store) Entries(key core.Slug) []Entry {
	b := s.board(key, false)
	if b == nil {
		return nil
	}
	return b.Entries()
}
