package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	values  map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	pingErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return nil, redis.Nil
	}
	return value, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value.([]byte)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Ping(context.Context) error { return f.pingErr }

func (f *fakeRedis) CartSlotKey(scope, name string) string {
	return "sf:cart:" + scope + ":" + name
}

func TestRedisSlotRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	backend, err := NewRedis(fake, 720*time.Hour)
	if err != nil {
		t.Fatalf("new redis backend: %v", err)
	}
	ctx := context.Background()

	if _, err := backend.Load(ctx, "abc", "cartItems"); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}

	if err := backend.Save(ctx, "abc", "cartItems", []byte("[]")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := fake.values["sf:cart:abc:cartItems"]; !ok {
		t.Fatalf("expected namespaced key, got %v", fake.values)
	}
	if ttl := fake.ttls["sf:cart:abc:cartItems"]; ttl != 720*time.Hour {
		t.Fatalf("slot should expire with its session, got ttl %v", ttl)
	}

	got, err := backend.Load(ctx, "abc", "cartItems")
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected load result %q err=%v", got, err)
	}
}

func TestRedisSlotErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection reset")
	fake.setErr = errors.New("READONLY")
	backend, _ := NewRedis(fake, time.Hour)

	if _, err := backend.Load(context.Background(), "abc", "cartItems"); err == nil || errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if err := backend.Save(context.Background(), "abc", "cartItems", []byte("[]")); err == nil {
		t.Fatalf("expected save error")
	}
}

func TestNewRedisRequiresClient(t *testing.T) {
	if _, err := NewRedis(nil, time.Hour); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestRedisSlotZeroTTLNeverExpires(t *testing.T) {
	fake := newFakeRedis()
	backend, err := NewRedis(fake, -time.Second)
	if err != nil {
		t.Fatalf("new redis backend: %v", err)
	}
	if err := backend.Save(context.Background(), "abc", "cartItems", []byte("[]")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := fake.ttls["sf:cart:abc:cartItems"]; ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}
}
