package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ReadState remembers which alerts a user has opened. Entries are allowed to lapse.
type ReadState interface {
	ReadIDs(ctx context.Context, userID string) (map[string]bool, error)
	MarkRead(ctx context.Context, userID, alertID string) error
}

// SentLedger records which alerts have already been pushed.
type SentLedger interface {
	// MarkSent records alertID for userID and reports whether this call was the first.
	MarkSent(ctx context.Context, userID, alertID string) (bool, error)
	// UnmarkSent drops the record so a later run pushes alertID again.
	UnmarkSent(ctx context.Context, userID, alertID string) error
}

// RedisReadState keeps read flags in a per-user Redis set that expires after ttl.
type RedisReadState struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReadState constructs a RedisReadState.
func NewRedisReadState(client *redis.Client, ttl time.Duration) *RedisReadState {
	return &RedisReadState{client: client, ttl: ttl}
}

func readKey(userID string) string { return "notifications:read:" + userID }

func sentKey(userID, alertID string) string { return "notifications:sent:" + userID + ":" + alertID }

func (s *RedisReadState) ReadIDs(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := s.client.SMembers(ctx, readKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("error loading read flags for %s: %w", userID, err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *RedisReadState) MarkRead(ctx context.Context, userID, alertID string) error {
	key := readKey(userID)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, alertID)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error marking %s read for %s: %w", alertID, userID, err)
	}
	return nil
}

func (s *RedisReadState) MarkSent(ctx context.Context, userID, alertID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, sentKey(userID, alertID), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("error recording pushed alert %s: %w", alertID, err)
	}
	return ok, nil
}

func (s *RedisReadState) UnmarkSent(ctx context.Context, userID, alertID string) error {
	if err := s.client.Del(ctx, sentKey(userID, alertID)).Err(); err != nil {
		return fmt.Errorf("error clearing pushed alert %s: %w", alertID, err)
	}
	return nil
}

// MemoryReadState is the in-process ReadState and SentLedger.
type MemoryReadState struct {
	mu   sync.Mutex
	read map[string]map[string]bool
	sent map[string]bool
}

// NewMemoryReadState returns an empty MemoryReadState.
func NewMemoryReadState() *MemoryReadState {
	return &MemoryReadState{read: make(map[string]map[string]bool), sent: make(map[string]bool)}
}

func (m *MemoryReadState) ReadIDs(_ context.Context, userID string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.read[userID]))
	for id := range m.read[userID] {
		out[id] = true
	}
	return out, nil
}

func (m *MemoryReadState) MarkRead(_ context.Context, userID, alertID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.read[userID] == nil {
		m.read[userID] = make(map[string]bool)
	}
	m.read[userID][alertID] = true
	return nil
}

func (m *MemoryReadState) MarkSent(_ context.Context, userID, alertID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sentKey(userID, alertID)
	if m.sent[key] {
		return false, nil
	}
	m.sent[key] = true
	return true, nil
}

func (m *MemoryReadState) UnmarkSent(_ context.Context, userID, alertID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sent, sentKey(userID, alertID))
	return nil
}
