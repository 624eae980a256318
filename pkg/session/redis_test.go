package session

import (
	"context"
	"testing"
	"time"
)

type redisCmd struct {
	data []byte
	err  error
}

func (c redisCmd) Bytes() ([]byte, error) { return c.data, c.err }
func (c redisCmd) Err() error             { return c.err }

type fakeRedis struct {
	values map[string][]byte
	ttls   map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) RedisStatusCmd {
	f.values[key] = value.([]byte)
	f.ttls[key] = exp
	return redisCmd{}
}

func (f *fakeRedis) Get(_ context.Context, key string) RedisStringCmd {
	v, ok := f.values[key]
	if !ok {
		return redisCmd{err: ErrRedisNil}
	}
	return redisCmd{data: v}
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) RedisIntCmd {
	for _, k := range keys {
		delete(f.values, k)
		delete(f.ttls, k)
	}
	return redisCmd{}
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store := NewRedisStore(client, "")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	st := &State{ID: "abc", ExpiresAt: now.Add(time.Hour), Data: map[string]any{"user": "ann"}}
	if err := store.Write(ctx, st); err != nil {
		t.Fatal(err)
	}
	if got := client.ttls["idom:session:abc"]; got != time.Hour {
		t.Errorf("ttl = %v, want 1h", got)
	}

	got, err := store.Read(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Data["user"] != "ann" || !got.ExpiresAt.Equal(st.ExpiresAt) {
		t.Errorf("Read = %+v", got)
	}

	missing, err := store.Read(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Read(missing) = %v, %v", missing, err)
	}

	st.ExpiresAt = now.Add(-time.Second)
	if err := store.Write(ctx, st); err != nil {
		t.Fatal(err)
	}
	if _, ok := client.values["idom:session:abc"]; ok {
		t.Error("expired state was stored")
	}
}

func TestRedisStorePrefix(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(client, "app:")
	st := &State{ID: "x", ExpiresAt: time.Now().Add(time.Minute)}
	if err := store.Write(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	if _, ok := client.values["app:x"]; !ok {
		t.Errorf("keys = %v", client.values)
	}
}
