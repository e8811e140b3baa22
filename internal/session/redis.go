package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "portal:session:"

// unlockScript deletes the lock key only while it still holds the caller's owner id.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps sessions in Redis so several portal instances can share them.
// Every write refreshes the key ttl.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A non-positive ttl stores keys without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: defaultKeyPrefix, ttl: ttl}
}

func (s *RedisStore) tokenKey(sessionID string) string {
	return s.prefix + sessionID + ":token"
}

func (s *RedisStore) lockKey(sessionID, name string) string {
	return s.prefix + sessionID + ":lock:" + name
}

func (s *RedisStore) Token(ctx context.Context, sessionID string) (string, error) {
	val, err := s.client.Get(ctx, s.tokenKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("session: read token: %w", err)
	}
	if s.ttl > 0 {
		s.client.Expire(ctx, s.tokenKey(sessionID), s.ttl)
	}
	return val, nil
}

func (s *RedisStore) SetToken(ctx context.Context, sessionID, token string) error {
	if err := s.client.Set(ctx, s.tokenKey(sessionID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: write token: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearToken(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.tokenKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: clear token: %w", err)
	}
	return nil
}

func (s *RedisStore) TryLock(ctx context.Context, sessionID, name string, ttl time.Duration) (string, bool, error) {
	owner := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.lockKey(sessionID, name), owner, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("session: acquire lock %s: %w", name, err)
	}
	if !ok {
		return "", false, nil
	}
	return owner, true, nil
}

func (s *RedisStore) Unlock(ctx context.Context, sessionID, name, owner string) error {
	if err := unlockScript.Run(ctx, s.client, []string{s.lockKey(sessionID, name)}, owner).Err(); err != nil {
		return fmt.Errorf("session: release lock %s: %w", name, err)
	}
	return nil
}
