package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"quizkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the QuizKit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// SubmitScore posts a score for a player. The result reports whether the
// submission improved the stored score and the player's current rank either
// way.
func (c *Client) SubmitScore(ctx context.Context, slug, nickname string, score int64) (SubmitResult, error) {
	if strings.TrimSpace(slug) == "" {
		return SubmitResult{}, ErrEmptySlug
	}
	if strings.TrimSpace(nickname) == "" {
		return SubmitResult{}, ErrEmptyNickname
	}

	u := fmt.Sprintf("%s/games/%s/score", c.baseURL, url.PathEscape(slug))
	payload, err := json.Marshal(map[string]any{"nickname": nickname, "score": score})
	if err != nil {
		return SubmitResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SubmitResult{}, err
	}
	defer resp.Body.Close()

	var result SubmitResult
	if err := decodeJSON(resp, &result); err != nil {
		return SubmitResult{}, err
	}
	return result, nil
}

// Ranking fetches the top entries of a game, best first. limit <= 0 uses the
// server default.
func (c *Client) Ranking(ctx context.Context, slug string, limit int) ([]RankedEntry, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, ErrEmptySlug
	}

	u, err := url.Parse(fmt.Sprintf("%s/games/%s/ranking", c.baseURL, url.PathEscape(slug)))
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		q := u.Query()
		q.Set("limit", strconv.Itoa(limit))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Ranking []RankedEntry `json:"ranking"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Ranking, nil
}

// Rank returns the 1-based rank of a player in a game.
func (c *Client) Rank(ctx context.Context, slug, nickname string) (int, error) {
	if strings.TrimSpace(slug) == "" {
		return 0, ErrEmptySlug
	}
	if strings.TrimSpace(nickname) == "" {
		return 0, ErrEmptyNickname
	}

	u := fmt.Sprintf("%s/games/%s/rank/%s", c.baseURL, url.PathEscape(slug), url.PathEscape(nickname))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body struct {
		Nickname string `json:"nickname"`
		Rank     int    `json:"rank"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return 0, err
	}
	return body.Rank, nil
}

// Info fetches public metadata for a game.
func (c *Client) Info(ctx context.Context, slug string) (GameInfo, error) {
	if strings.TrimSpace(slug) == "" {
		return GameInfo{}, ErrEmptySlug
	}

	u := fmt.Sprintf("%s/games/%s/info", c.baseURL, url.PathEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return GameInfo{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return GameInfo{}, err
	}
	defer resp.Body.Close()

	var info GameInfo
	if err := decodeJSON(resp, &info); err != nil {
		return GameInfo{}, err
	}
	return info, nil
}

// Health probes /healthz and returns status + dependency checks.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
