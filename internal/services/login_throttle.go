package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AttemptCounter counts events per key over a sliding window.
type AttemptCounter interface {
	// Increment records one attempt and returns the number of attempts
	// within the current window, this one included.
	Increment(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// LoginThrottleKey is the counter key for sign-in attempts on an email.
func LoginThrottleKey(email string) string {
	return "login_" + email
}

// LoginThrottle rejects sign-in attempts for an email once more than limit
// attempts were made within the counter's window.
type LoginThrottle struct {
	counter AttemptCounter
	limit   int64
}

func NewLoginThrottle(counter AttemptCounter, limit int) *LoginThrottle {
	return &LoginThrottle{counter: counter, limit: int64(limit)}
}

// Check records an attempt and returns ErrAccountLocked when it exceeds the
// limit. Counter failures are returned as is.
func (t *LoginThrottle) Check(ctx context.Context, email string) error {
	count, err := t.counter.Increment(ctx, LoginThrottleKey(email))
	if err != nil {
		return err
	}
	if count > t.limit {
		return ErrAccountLocked
	}
	return nil
}

// Reset clears the attempts recorded for email.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	return t.counter.Reset(ctx, LoginThrottleKey(email))
}

// MemoryAttemptCounter keeps attempt timestamps in process memory. It is
// used when Redis is disabled and only limits a single instance.
type MemoryAttemptCounter struct {
	mu        sync.Mutex
	window    time.Duration
	attempts  map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryAttemptCounter(window time.Duration) *MemoryAttemptCounter {
	return &MemoryAttemptCounter{
		window:   window,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (c *MemoryAttemptCounter) Increment(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) > c.window {
		c.sweep(now)
	}

	kept := prune(c.attempts[key], now.Add(-c.window))
	kept = append(kept, now)
	c.attempts[key] = kept
	return int64(len(kept)), nil
}

func (c *MemoryAttemptCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, key)
	return nil
}

// sweep drops keys with no attempts left in the window.
func (c *MemoryAttemptCounter) sweep(now time.Time) {
	cutoff := now.Add(-c.window)
	for key, times := range c.attempts {
		if kept := prune(times, cutoff); len(kept) == 0 {
			delete(c.attempts, key)
		} else {
			c.attempts[key] = kept
		}
	}
	c.lastSweep = now
}

// prune drops timestamps at or before cutoff. times is in ascending order.
func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

// RedisAttemptCounter implements the sliding window with one sorted set per
// key, scored by attempt time in milliseconds, so every instance shares it.
type RedisAttemptCounter struct {
	client *redis.Client
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisAttemptCounter(client *redis.Client, window time.Duration) *RedisAttemptCounter {
	return &RedisAttemptCounter{
		client: client,
		window: window,
		prefix: "throttle:",
		now:    time.Now,
	}
}

func (c *RedisAttemptCounter) Increment(ctx context.Context, key string) (int64, error) {
	now := c.now()
	redisKey := c.prefix + key
	cutoff := now.Add(-c.window).UnixMilli()

	pipe := c.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, c.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (c *RedisAttemptCounter) Reset(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
