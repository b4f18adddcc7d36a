package leaderboard

import "quizkit/core"

// Entry is one scoreboard row.
type Entry struct {
	Nickname core.Nickname `json:"nickname"`
	Score    int64         `json:"score"`
}

// UpdateResult reports the outcome of an upsert-if-better call. Rank is the
// player's 1-based position after the call, whether or not the stored score
// changed.
type UpdateResult struct {
	Updated bool
	Rank    int
}

// Board abstracts one game's ordered score set. Only a player's best score
// survives; ties order by the sequence of the update that reached the score.
type Board interface {
	UpsertIfBetter(nickname core.Nickname, score int64) UpdateResult
	Rank(nickname core.Nickname) (int, bool)
	TopN(n int) []Entry
	Len() int
}
