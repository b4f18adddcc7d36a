package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"quizkit/core"
)

// A skip list keyed by (score desc, sequence asc). Each forward pointer
// carries the number of level-0 steps it skips, so rank queries are
// O(log n) instead of a walk. The sequence counter increments once per
// accepted mutation and supplies the tie-break: the entry that reached a
// score earlier ranks higher, and that order never flips on unrelated
// writes.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	e    Entry
	seq  uint64
	next [maxLevel]*node
	span [maxLevel]int
}

// before reports whether n sorts strictly ahead of (score, seq).
func (n *node) before(score int64, seq uint64) bool {
	if n.e.Score == score {
		return n.seq < seq
	}
	return n.e.Score > score
}

type SkipList struct {
	mu      sync.RWMutex
	head    *node
	lvl     int
	length  int
	byNick  map[core.Nickname]*node
	nextSeq uint64
	rng     *rand.Rand
}

func NewSkipList() *SkipList {
	// Seed PCG from crypto/rand so level shapes differ across boards.
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &SkipList{
		head:   &node{},
		lvl:    1,
		byNick: map[core.Nickname]*node{},
		rng:    rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

// UpsertIfBetter inserts the player or replaces a strictly lower stored
// score. Equal or higher stored scores make the call a no-op; the returned
// rank then reflects the untouched entry. The read-compare-write sequence
// runs under one critical section.
func (s *SkipList) UpsertIfBetter(nickname core.Nickname, score int64) UpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byNick[nickname]; ok {
		if old.e.Score >= score {
			return UpdateResult{Updated: false, Rank: s.rankLocked(old)}
		}
		s.removeLocked(old)
	}
	seq := s.nextSeq
	s.nextSeq++
	rank := s.insertLocked(Entry{Nickname: nickname, Score: score}, seq)
	return UpdateResult{Updated: true, Rank: rank}
}

// insertLocked places a fresh node and returns its 1-based rank.
func (s *SkipList) insertLocked(e Entry, seq uint64) int {
	var update [maxLevel]*node
	var rank [maxLevel]int
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		if i == s.lvl-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		for cur.next[i] != nil && cur.next[i].before(e.Score, seq) {
			rank[i] += cur.span[i]
			cur = cur.next[i]
		}
		update[i] = cur
	}

	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			rank[i] = 0
			update[i] = s.head
			s.head.span[i] = s.length
		}
		s.lvl = lvl
	}

	n := &node{e: e, seq: seq}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
		n.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = (rank[0] - rank[i]) + 1
	}
	for i := lvl; i < s.lvl; i++ {
		update[i].span[i]++
	}

	s.byNick[e.Nickname] = n
	s.length++
	return rank[0] + 1
}

func (s *SkipList) removeLocked(target *node) {
	var update [maxLevel]*node
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && cur.next[i].before(target.e.Score, target.seq) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	if update[0].next[0] != target {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].span[i] += target.span[i] - 1
			update[i].next[i] = target.next[i]
		} else {
			update[i].span[i]--
		}
	}
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
	delete(s.byNick, target.e.Nickname)
	s.length--
}

// rankLocked counts spans down to target; 1 = highest score.
func (s *SkipList) rankLocked(target *node) int {
	rank := 0
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		// advance while the next node sorts at or ahead of target
		for cur.next[i] != nil && cur.next[i].before(target.e.Score, target.seq+1) {
			rank += cur.span[i]
			cur = cur.next[i]
		}
		if cur == target {
			return rank
		}
	}
	return rank
}

// Rank returns the player's 1-based rank, or false if absent.
func (s *SkipList) Rank(nickname core.Nickname) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byNick[nickname]
	if !ok {
		return 0, false
	}
	return s.rankLocked(n), true
}

// TopN returns at most n entries, highest first. n <= 0 yields nil.
func (s *SkipList) TopN(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, min(n, s.length))
	cur := s.head.next[0]
	for cur != nil && len(out) < n {
		out = append(out, cur.e)
		cur = cur.next[0]
	}
	return out
}

// Entries returns every entry in rank order. Used for snapshots; replaying
// the slice through UpsertIfBetter reproduces the same tie-break order.
func (s *SkipList) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, s.length)
	cur := s.head.next[0]
	for cur != nil {
		out = append(out, cur.e)
		cur = cur.next[0]
	}
	return out
}

func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.length
}

var _ Board = (*SkipList)(nil)
