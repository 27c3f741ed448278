// Package cache provides the Redis-backed stores: the best survival time
// per profile and a leaderboard of finished runs.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// BestTimePrefix prefixes the per-profile best time keys.
	BestTimePrefix = "overheat:best_time:"
	// LeaderboardKey is the sorted set of finished runs by survived seconds.
	LeaderboardKey = "overheat:leaderboard"
)

// Options configures the Redis connection.
type Options struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int           // Connection attempts before giving up
	RetryDelay time.Duration // Initial backoff between attempts
}

// Connect creates a Redis client and pings it with exponential backoff.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	if opts.RetryDelay > 0 {
		b.InitialInterval = opts.RetryDelay
	}
	retries := opts.MaxRetries
	if retries < 1 {
		retries = 1
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if _, err := client.Ping(ctx).Result(); err != nil {
			logrus.Warnf("Redis connection failed (attempt %d/%d): %v", attempt, retries, err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s after %d attempts: %w", opts.Addr, attempt, err)
	}

	logrus.Infof("connected to Redis at %s (attempt %d/%d)", opts.Addr, attempt, retries)
	return client, nil
}

// RedisBestTimeStore keeps the best survival time of one profile.
type RedisBestTimeStore struct {
	client    redis.Cmdable
	profileID string
}

// NewRedisBestTimeStore creates a store for profileID.
func NewRedisBestTimeStore(client redis.Cmdable, profileID string) *RedisBestTimeStore {
	return &RedisBestTimeStore{client: client, profileID: profileID}
}

// ReadBestTime returns 0 when the profile has no record yet.
func (s *RedisBestTimeStore) ReadBestTime(ctx context.Context) (float64, error) {
	data, err := s.client.Get(ctx, s.key()).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get best time: %w", err)
	}
	best, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse best time %q: %w", data, err)
	}
	return best, nil
}

// WriteBestTime stores seconds as the profile's record, without expiry.
func (s *RedisBestTimeStore) WriteBestTime(ctx context.Context, seconds float64) error {
	value := strconv.FormatFloat(seconds, 'f', -1, 64)
	if err := s.client.Set(ctx, s.key(), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set best time: %w", err)
	}
	return nil
}

func (s *RedisBestTimeStore) key() string {
	return BestTimePrefix + s.profileID
}

// Run is one leaderboard entry.
type Run struct {
	SessionID string  `json:"session_id"`
	Survived  float64 `json:"survived"`
}

// Leaderboard ranks finished runs by survived time in a sorted set.
type Leaderboard struct {
	client redis.Cmdable
	key    string
}

// NewLeaderboard creates a leaderboard on LeaderboardKey.
func NewLeaderboard(client redis.Cmdable) *Leaderboard {
	return &Leaderboard{client: client, key: LeaderboardKey}
}

// RecordStart is a no-op; only finished runs are ranked.
func (l *Leaderboard) RecordStart(ctx context.Context, sessionID string, startedAt time.Time) error {
	return nil
}

// RecordFinish ranks a finished run.
func (l *Leaderboard) RecordFinish(ctx context.Context, sessionID string, endedAt time.Time, survived float64, reason string) error {
	err := l.client.ZAdd(ctx, l.key, &redis.Z{Score: survived, Member: sessionID}).Err()
	if err != nil {
		return fmt.Errorf("failed to rank run %s: %w", sessionID, err)
	}
	return nil
}

// Top returns the n longest runs, best first.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	runs := make([]Run, 0, len(zs))
	for _, z := range zs {
		id, _ := z.Member.(string)
		runs = append(runs, Run{SessionID: id, Survived: z.Score})
	}
	return runs, nil
}
