package core

import (
	"fmt"
	"strings"
)

// Slug identifies one game and therefore one leaderboard. Slugs are
// normalized to lowercase and carry no meaning beyond partitioning.
type Slug string

// Nickname identifies a player within a single leaderboard. There is no
// account system behind it; the pair (Slug, Nickname) is the unit of
// identity for a score.
type Nickname string

// MaxNicknameLen bounds nickname length in runes.
const MaxNicknameLen = 20

// NormalizeSlug trims and lowercases a game slug and checks its charset.
func NormalizeSlug(s Slug) (Slug, error) {
	v := strings.ToLower(strings.TrimSpace(string(s)))
	if v == "" {
		return "", Invalid("slug", "must not be empty")
	}
	for _, r := range v {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return "", Invalid("slug", "may only contain a-z, 0-9, dash and underscore")
	}
	return Slug(v), nil
}

// NormalizeNickname trims surrounding whitespace and enforces the 1..20
// rune length bound. The inner characters are kept as submitted.
func NormalizeNickname(n Nickname) (Nickname, error) {
	v := strings.TrimSpace(string(n))
	if v == "" {
		return "", Invalid("nickname", "must not be empty")
	}
	if length := len([]rune(v)); length > MaxNicknameLen {
		return "", Invalid("nickname", fmt.Sprintf("must be at most %d characters", MaxNicknameLen))
	}
	return Nickname(v), nil
}
