package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizkit/core"
	"quizkit/leaderboard"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Ranker delegates the per-game ordered sets to Redis sorted sets, one zset
// per game key. This mirrors deployments where the ordering primitive lives
// in a shared store instead of in process.
//
// Two deviations from the in-process reference implementation, both inherent
// to the substrate: zset scores are float64, so magnitudes beyond 2^53 lose
// precision, and entries with equal scores order by member name rather than
// by update sequence.
type Ranker struct {
	client *redis.Client
}

// New creates a Redis-backed ranker and verifies connectivity.
func New(config Config) (*Ranker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Ranker{client: client}, nil
}

// NewWithClient creates a Ranker using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Ranker {
	return &Ranker{client: client}
}

// Close closes the Redis connection
func (r *Ranker) Close() error {
	return r.client.Close()
}

func boardKey(key core.Slug) string {
	return fmt.Sprintf("lb:%s", key)
}

// Lua script applying upsert-if-better and reading back the rank in one
// atomic step, so concurrent submissions for the same member cannot
// interleave.
var upsertScript = redis.NewScript(`
	local key = KEYS[1]
	local member = ARGV[1]
	local score = tonumber(ARGV[2])
	local cur = redis.call('ZSCORE', key, member)
	local updated = 0
	if not cur or score > tonumber(cur) then
		redis.call('ZADD', key, score, member)
		updated = 1
	end
	local rank = redis.call('ZREVRANK', key, member)
	return {updated, rank}
`)

func (r *Ranker) UpsertIfBetter(ctx context.Context, key core.Slug, nickname core.Nickname, score int64) (leaderboard.UpdateResult, error) {
	nickname, err := core.NormalizeNickname(nickname)
	if err != nil {
		return leaderboard.UpdateResult{}, err
	}
	raw, err := upsertScript.Run(ctx, r.client, []string{boardKey(key)}, string(nickname), score).Result()
	if err != nil {
		return leaderboard.UpdateResult{}, core.Transient("upsert", err)
	}
	vals, ok := raw.([]interface{})
	if !ok || len(vals) != 2 {
		return leaderboard.UpdateResult{}, &core.InvariantViolation{Op: "upsert", Detail: fmt.Sprintf("unexpected script reply %v", raw)}
	}
	updated, _ := vals[0].(int64)
	rank, _ := vals[1].(int64)
	return leaderboard.UpdateResult{Updated: updated == 1, Rank: int(rank) + 1}, nil
}

func (r *Ranker) Rank(ctx context.Context, key core.Slug, nickname core.Nickname) (int, error) {
	rank, err := r.client.ZRevRank(ctx, boardKey(key), string(nickname)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, core.ErrNotFound
		}
		return 0, core.Transient("rank", err)
	}
	return int(rank) + 1, nil
}

func (r *Ranker) TopN(ctx context.Context, key core.Slug, n int) ([]leaderboard.Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := r.client.ZRevRangeWithScores(ctx, boardKey(key), 0, int64(n)-1).Result()
	if err != nil {
		return nil, core.Transient("topN", err)
	}
	out := make([]leaderboard.Entry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, leaderboard.Entry{Nickname: core.Nickname(member), Score: int64(z.Score)})
	}
	return out, nil
}

func (r *Ranker) Count(ctx context.Context, key core.Slug) (int, error) {
	n, err := r.client.ZCard(ctx, boardKey(key)).Result()
	if err != nil {
		return 0, core.Transient("count", err)
	}
	return int(n), nil
}

func (r *Ranker) Reset(ctx context.Context, key core.Slug) error {
	if err := r.client.Del(ctx, boardKey(key)).Err(); err != nil {
		return core.Transient("reset", err)
	}
	return nil
}
