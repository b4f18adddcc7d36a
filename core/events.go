package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventScoreAccepted    EventType = "score_accepted"
	EventScoreRejected    EventType = "score_rejected"
	EventGameCreated      EventType = "game_created"
	EventGameDeactivated  EventType = "game_deactivated"
	EventLeaderboardReset EventType = "leaderboard_reset"
)

// Event represents an immutable domain event. Score events never carry
// rank; consumers that need a rank must query for it.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	Game     Slug           `json:"game"`
	Nickname Nickname       `json:"nickname,omitempty"`
	Score    int64          `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewScoreAccepted(game Slug, nickname Nickname, score int64) Event {
	return Event{Type: EventScoreAccepted, Time: time.Now().UTC(), Game: game, Nickname: nickname, Score: score}
}

// NewScoreRejected records a submission that did not beat the player's
// stored best. This is a normal outcome, not an error.
func NewScoreRejected(game Slug, nickname Nickname, score int64) Event {
	return Event{Type: EventScoreRejected, Time: time.Now().UTC(), Game: game, Nickname: nickname, Score: score}
}

func NewGameCreated(game Slug) Event {
	return Event{Type: EventGameCreated, Time: time.Now().UTC(), Game: game}
}

func NewGameDeactivated(game Slug) Event {
	return Event{Type: EventGameDeactivated, Time: time.Now().UTC(), Game: game}
}

func NewLeaderboardReset(game Slug) Event {
	return Event{Type: EventLeaderboardReset, Time: time.Now().UTC(), Game: game}
}
