package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "estoque:session:revoked:"

// NewRedisClient creates a Redis client and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}

	return client, nil
}

// RedisRevocations stores revoked session ids in Redis with a TTL matching
// the remaining token lifetime.
type RedisRevocations struct {
	client *redis.Client
}

var _ domain.RevocationStore = (*RedisRevocations)(nil)

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (s *RedisRevocations) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+sessionID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// MemoryRevocations is the single-process fallback used when Redis is not configured.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

var _ domain.RevocationStore = (*MemoryRevocations)(nil)

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryRevocations) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = s.now().Add(ttl)
	return nil
}

func (s *MemoryRevocations) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, sessionID)
		return false, nil
	}
	return true, nil
}
