package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"medstore/m/internal/redisx"
)

// Revoker remembers signed-out token ids until they would have expired.
type Revoker interface {
	Revoke(ctx context.Context, claims *Claims) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func remaining(claims *Claims, now time.Time) time.Duration {
	ttl := redisx.TTLRevokedMin
	if claims.ExpiresAt != nil {
		if d := claims.ExpiresAt.Sub(now); d > ttl {
			ttl = d
		}
	}
	return ttl
}

// RedisRevoker shares revocations across instances.
type RedisRevoker struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisRevoker(rdb *redis.Client) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, now: time.Now}
}

func (r *RedisRevoker) Revoke(ctx context.Context, claims *Claims) error {
	key := fmt.Sprintf(redisx.KeyRevokedToken, claims.ID)
	if err := r.rdb.Set(ctx, key, strconv.FormatInt(claims.UserID, 10), remaining(claims, r.now())).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ok, err := redisx.Exists(ctx, r.rdb, fmt.Sprintf(redisx.KeyRevokedToken, jti))
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return ok, nil
}

// MemoryRevoker keeps revocations in process. It is used when no Redis
// address is configured.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, claims *Claims) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for jti, until := range m.revoked {
		if now.After(until) {
			delete(m.revoked, jti)
		}
	}
	m.revoked[claims.ID] = now.Add(remaining(claims, now))
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[jti]
	return ok && m.now().Before(until), nil
}
