package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// RedisClient is the subset of a Redis client the store needs. It matches
// the method set of github.com/redis/go-redis/v9 behind a thin adapter.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) RedisStatusCmd
	Get(ctx context.Context, key string) RedisStringCmd
	Del(ctx context.Context, keys ...string) RedisIntCmd
}

// RedisStatusCmd is the result of SET.
type RedisStatusCmd interface {
	Err() error
}

// RedisStringCmd is the result of GET.
type RedisStringCmd interface {
	Bytes() ([]byte, error)
	Err() error
}

// RedisIntCmd is the result of DEL.
type RedisIntCmd interface {
	Err() error
}

// ErrRedisNil is what the client returns for a missing key.
var ErrRedisNil = errors.New("redis: nil")

// RedisStore keeps states in Redis so several servers can share sessions.
// Keys expire with their state.
type RedisStore struct {
	client RedisClient
	prefix string
	now    func() time.Time
}

// DefaultRedisPrefix is prepended to session ids.
const DefaultRedisPrefix = "idom:session:"

// NewRedisStore creates a store. An empty prefix means DefaultRedisPrefix.
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Read loads a state. A missing key is not an error.
func (r *RedisStore) Read(ctx context.Context, id string) (*State, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if err.Error() == ErrRedisNil.Error() {
			return nil, nil
		}
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Write stores a state until it expires. An already expired state is
// deleted instead.
func (r *RedisStore) Write(ctx context.Context, st *State) error {
	ttl := st.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, st.ID)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(st.ID), data, ttl).Err()
}

// Delete removes a state.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}
