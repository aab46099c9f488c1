package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyTpl         = "session:%s"          // session:${jti}
	accountSessionsKeyTpl = "account:%s:sessions" // account:${account_id}
)

type SessionStore interface {
	Register(ctx context.Context, tokenID, accountID string, ttl time.Duration) error
	Active(ctx context.Context, tokenID, accountID string) (bool, error)
	Revoke(ctx context.Context, tokenID, accountID string) error
	RevokeAll(ctx context.Context, accountID string) error
	Ping(ctx context.Context) error
}

type redisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Register(ctx context.Context, tokenID, accountID string, ttl time.Duration) error {
	accountKey := fmt.Sprintf(accountSessionsKeyTpl, accountID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf(sessionKeyTpl, tokenID), accountID, ttl)
	pipe.SAdd(ctx, accountKey, tokenID)
	pipe.Expire(ctx, accountKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Active(ctx context.Context, tokenID, accountID string) (bool, error) {
	owner, err := s.client.Get(ctx, fmt.Sprintf(sessionKeyTpl, tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return owner == accountID, nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, tokenID, accountID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, fmt.Sprintf(sessionKeyTpl, tokenID))
	pipe.SRem(ctx, fmt.Sprintf(accountSessionsKeyTpl, accountID), tokenID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) RevokeAll(ctx context.Context, accountID string) error {
	accountKey := fmt.Sprintf(accountSessionsKeyTpl, accountID)

	tokenIDs, err := s.client.SMembers(ctx, accountKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range tokenIDs {
		pipe.Del(ctx, fmt.Sprintf(sessionKeyTpl, id))
	}
	pipe.Del(ctx, accountKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
