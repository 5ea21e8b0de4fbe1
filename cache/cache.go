// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/voucher-vote/models"
)

// StandingsKey holds the cached candidate list in Redis
const StandingsKey = "standings:all"

// GenerationKey counts invalidations in Redis
const GenerationKey = "standings:generation"

// Standings caches the public candidate list between votes.
// A miss is never an error; callers fall back to the database.
//
// Readers take Generation before querying and pass it to Set. Set drops the
// list when Invalidate ran in between, so a snapshot read before a vote
// committed is never stored after it.
type Standings interface {
	Get(ctx context.Context) ([]models.Candidate, bool)
	Generation(ctx context.Context) int64
	Set(ctx context.Context, generation int64, candidates []models.Candidate)
	Invalidate(ctx context.Context)
}

// New returns a Redis-backed cache when redisURL is set, otherwise an
// in-process one.
func New(ctx context.Context, redisURL string, ttl time.Duration) (Standings, error) {
	if redisURL == "" {
		return NewMemory(ttl), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 2 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

var errStale = errors.New("standings changed while loading")

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *Redis) Get(ctx context.Context) ([]models.Candidate, bool) {
	cached, err := r.client.Get(ctx, StandingsKey).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("standings cache read failed", "error", err)
		}
		return nil, false
	}

	var candidates []models.Candidate
	if err := json.Unmarshal([]byte(cached), &candidates); err != nil {
		slog.Warn("standings cache entry corrupt", "error", err)
		return nil, false
	}
	return candidates, true
}

// Generation returns -1 when Redis is unreachable, which no Set accepts
func (r *Redis) Generation(ctx context.Context) int64 {
	gen, err := r.client.Get(ctx, GenerationKey).Int64()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		slog.Warn("standings generation read failed", "error", err)
		return -1
	}
	return gen
}

func (r *Redis) Set(ctx context.Context, generation int64, candidates []models.Candidate) {
	b, err := json.Marshal(candidates)
	if err != nil {
		return
	}

	// WATCH aborts the write when Invalidate bumps the generation first
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, GenerationKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != generation {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, StandingsKey, b, r.ttl)
			return nil
		})
		return err
	}, GenerationKey)
	if err != nil && !errors.Is(err, errStale) && !errors.Is(err, redis.TxFailedErr) {
		slog.Warn("standings cache write failed", "error", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, StandingsKey)
		return nil
	})
	if err != nil {
		slog.Warn("standings cache invalidation failed", "error", err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Memory is the single-process fallback
type Memory struct {
	mu         sync.RWMutex
	ttl        time.Duration
	candidates []models.Candidate
	expiresAt  time.Time
	generation int64
	now        func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context) ([]models.Candidate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.candidates == nil || !m.now().Before(m.expiresAt) {
		return nil, false
	}
	out := make([]models.Candidate, len(m.candidates))
	copy(out, m.candidates)
	return out, true
}

func (m *Memory) Generation(_ context.Context) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

func (m *Memory) Set(_ context.Context, generation int64, candidates []models.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return
	}
	m.candidates = make([]models.Candidate, len(candidates))
	copy(m.candidates, candidates)
	m.expiresAt = m.now().Add(m.ttl)
}

func (m *Memory) Invalidate(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = nil
	m.generation++
}
