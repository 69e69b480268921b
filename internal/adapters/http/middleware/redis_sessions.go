package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisSessionPrefix = "practice:session:"
	redisAccountPrefix = "practice:account-sessions:"
)

// RedisSessionStore keeps sessions in Redis so several server instances share them.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to url (redis://host:port/db) and verifies the connection.
// A non-positive ttl uses DefaultSessionTTL.
func NewRedisSessionStore(ctx context.Context, url string, ttl time.Duration) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	slog.Info("session_event", "event", "redis_connected", "addr", opts.Addr)
	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

// Close releases the connection pool.
func (rs *RedisSessionStore) Close() error {
	return rs.client.Close()
}

// Create stores s under a new token with the store TTL.
// POST: the token is also indexed under the account for DeleteAccount
func (rs *RedisSessionStore) Create(ctx context.Context, s Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.CreatedAt = time.Now()
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, redisSessionPrefix+token, raw, rs.ttl)
	pipe.SAdd(ctx, redisAccountPrefix+s.AccountID, token)
	pipe.Expire(ctx, redisAccountPrefix+s.AccountID, rs.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Get loads a session. Redis errors are logged and treated as signed out.
func (rs *RedisSessionStore) Get(ctx context.Context, token string) (Session, bool) {
	raw, err := rs.client.Get(ctx, redisSessionPrefix+token).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("session_event", "event", "redis_get_failed", "error", err)
		}
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, false
	}
	return s, true
}

// Delete removes one session.
func (rs *RedisSessionStore) Delete(ctx context.Context, token string) error {
	s, ok := rs.Get(ctx, token)
	pipe := rs.client.TxPipeline()
	pipe.Del(ctx, redisSessionPrefix+token)
	if ok {
		pipe.SRem(ctx, redisAccountPrefix+s.AccountID, token)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteAccount removes every session of accountID.
func (rs *RedisSessionStore) DeleteAccount(ctx context.Context, accountID string) error {
	tokens, err := rs.client.SMembers(ctx, redisAccountPrefix+accountID).Result()
	if err != nil {
		return err
	}
	keys := []string{redisAccountPrefix + accountID}
	for _, t := range tokens {
		keys = append(keys, redisSessionPrefix+t)
	}
	return rs.client.Del(ctx, keys...).Err()
}
