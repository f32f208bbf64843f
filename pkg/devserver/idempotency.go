package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// IdempotencyHeader carries the per-submit key sent by clients
const IdempotencyHeader = "Idempotency-Key"

// Idempotency remembers which submissions were already processed
type Idempotency interface {
	// Claim reserves key and reports whether this caller is the first to use it
	Claim(ctx context.Context, key string) (bool, error)
	// Complete records the result of the submission that claimed key
	Complete(ctx context.Context, key string, result *model.SubmissionResult) error
	// Result returns the recorded result, or nil while the first submission is still running
	Result(ctx context.Context, key string) (*model.SubmissionResult, error)
	// Release forgets key so the submission can be retried
	Release(ctx context.Context, key string) error
}

const pendingMarker = "pending"

// RedisIdempotency stores claims in redis with a TTL
type RedisIdempotency struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisIdempotency creates a redis-backed store
func NewRedisIdempotency(rdb redis.Cmdable, ttl time.Duration) *RedisIdempotency {
	return &RedisIdempotency{rdb: rdb, ttl: ttl}
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency_%s", key)
}

// Claim implements Idempotency
func (s *RedisIdempotency) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, idempotencyKey(key), pendingMarker, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return ok, nil
}

// Complete implements Idempotency
func (s *RedisIdempotency) Complete(ctx context.Context, key string, result *model.SubmissionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := s.rdb.Set(ctx, idempotencyKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent result: %w", err)
	}
	return nil
}

// Result implements Idempotency
func (s *RedisIdempotency) Result(ctx context.Context, key string) (*model.SubmissionResult, error) {
	value, err := s.rdb.Get(ctx, idempotencyKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotent result: %w", err)
	}
	return decodeStoredResult(value)
}

// Release implements Idempotency
func (s *RedisIdempotency) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, idempotencyKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

func decodeStoredResult(value string) (*model.SubmissionResult, error) {
	if value == pendingMarker {
		return nil, nil
	}
	var result model.SubmissionResult
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return nil, fmt.Errorf("failed to decode idempotent result: %w", err)
	}
	return &result, nil
}

// MemoryIdempotency keeps claims in process memory, for runs without redis
type MemoryIdempotency struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// NewMemoryIdempotency creates an in-memory store
func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	return &MemoryIdempotency{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryIdempotency) live(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if ok && s.ttl > 0 && !s.now().Before(e.expires) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, ok
}

// Claim implements Idempotency
func (s *MemoryIdempotency) Claim(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{value: pendingMarker, expires: s.now().Add(s.ttl)}
	return true, nil
}

// Complete implements Idempotency
func (s *MemoryIdempotency) Complete(ctx context.Context, key string, result *model.SubmissionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: string(data), expires: s.now().Add(s.ttl)}
	return nil
}

// Result implements Idempotency
func (s *MemoryIdempotency) Result(ctx context.Context, key string) (*model.SubmissionResult, error) {
	s.mu.Lock()
	e, ok := s.live(key)
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeStoredResult(e.value)
}

// Release implements Idempotency
func (s *MemoryIdempotency) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
