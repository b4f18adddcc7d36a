package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"quizkit/core"
)

// Sink posts game lifecycle events to configured HTTP endpoints so external
// admin tooling can react to catalog changes. Score traffic is deliberately
// not forwarded; it is too chatty for webhooks and lives on the realtime
// feed instead.
type Sink struct {
	client    *http.Client
	endpoints []string
	secret    []byte
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithSecret enables an X-Quizkit-Signature header carrying a hex HMAC-SHA256
// of the body.
func WithSecret(secret string) Option {
	return func(s *Sink) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// wants filters to lifecycle events.
func wants(t core.EventType) bool {
	switch t {
	case core.EventGameCreated, core.EventGameDeactivated, core.EventLeaderboardReset:
		return true
	}
	return false
}

// OnEvent posts the event JSON to all endpoints. Synchronous; delivery
// errors are dropped, the catalog stays the source of truth.
func (s *Sink) OnEvent(e core.Event) {
	if len(s.endpoints) == 0 || !wants(e.Type) {
		return
	}
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if len(s.secret) > 0 {
			mac := hmac.New(sha256.New, s.secret)
			mac.Write(body)
			req.Header.Set("X-Quizkit-Signature", hex.EncodeToString(mac.Sum(nil)))
		}
		_, _ = s.client.Do(req)
	}
}
