package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// SubmitResult mirrors the score submission response.
type SubmitResult struct {
	Success      bool `json:"success"`
	Rank         *int `json:"rank"`
	TotalPlayers int  `json:"totalPlayers"`
}

// RankedEntry is one row of a game ranking.
type RankedEntry struct {
	Nickname string `json:"nickname"`
	Score    int64  `json:"score"`
	Rank     int    `json:"rank"`
}

// GameInfo mirrors the public game metadata.
type GameInfo struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError carries the server's structured error body.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("request failed: status %d", e.StatusCode)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptySlug is returned when the game slug is empty.
var ErrEmptySlug = errors.New("game slug is required")

// ErrEmptyNickname is returned when the nickname is empty.
var ErrEmptyNickname = errors.New("nickname is required")
