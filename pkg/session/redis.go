package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

const redisPrefix = "flowmap:session:"

// RedisStore shares sessions between server instances. Keys expire in
// Redis at the session's ExpiresAt.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr and checks the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	if addr == "" {
		return nil, ferrors.New(ferrors.ErrCodeInvalidConfig, "redis session store needs an address")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "connect to redis at %s", addr)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, redisPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "get session")
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "parse session")
	}
	if sess.IsExpired() {
		return nil, nil
	}
	return &sess, nil
}

func (s *RedisStore) Set(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "marshal session")
	}
	ttl := sess.ExpiresAt.Sub(clock.Now())
	if ttl <= 0 {
		return s.Delete(ctx, sess.ID)
	}
	if err := s.client.Set(ctx, redisPrefix+sess.ID, data, ttl.Round(time.Millisecond)).Err(); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeNetwork, err, "set session")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisPrefix+sessionID).Err(); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeNetwork, err, "delete session")
	}
	return nil
}

// Cleanup counts the stored sessions; Redis expires them itself.
func (s *RedisStore) Cleanup(ctx context.Context) (int, error) {
	var n int
	iter := s.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, ferrors.Wrap(ferrors.ErrCodeNetwork, err, "scan sessions")
	}
	return n, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
