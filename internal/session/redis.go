package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "session:"

// RedisStore keeps one JSON encoded principal per scope under session:<scope> with a TTL.
type RedisStore struct {
	rdb       goredis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(rdb goredis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb:       rdb,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
	}
}

// NewRedisClient opens a client and verifies the server answers.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) key(ctx context.Context) (string, bool) {
	sc, ok := scope(ctx)
	if !ok {
		return "", false
	}
	if sc == "" {
		sc = "_process"
	}
	return s.keyPrefix + sc, true
}

func (s *RedisStore) SetCurrentUser(ctx context.Context, p Principal) error {
	key, ok := s.key(ctx)
	if !ok {
		return ErrAnonymous
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) GetCurrentUser(ctx context.Context) (*Principal, bool, error) {
	key, ok := s.key(ctx)
	if !ok {
		return nil, false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	var p Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}
	return &p, true, nil
}

func (s *RedisStore) ClearCurrentUser(ctx context.Context) error {
	key, ok := s.key(ctx)
	if !ok {
		return nil
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
