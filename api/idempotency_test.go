package api

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T, ttl time.Duration) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDeduper(client, ttl), mr
}

func TestRedisDeduperAdd(t *testing.T) {
	d, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	added, err := d.Add(ctx, "key-1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Fatal("expected first add to succeed")
	}

	added, err = d.Add(ctx, "key-1")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if added {
		t.Fatal("expected duplicate key to be rejected")
	}
}

func TestRedisDeduperRemoveAllowsRetry(t *testing.T) {
	d, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if _, err := d.Add(ctx, "key-2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := d.Remove(ctx, "key-2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	added, err := d.Add(ctx, "key-2")
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if !added {
		t.Fatal("expected key to be reusable after remove")
	}
}

func TestRedisDeduperKeysExpire(t *testing.T) {
	d, mr := newTestDeduper(t, time.Second)
	ctx := context.Background()

	if _, err := d.Add(ctx, "key-3"); err != nil {
		t.Fatalf("add: %v", err)
	}
	mr.FastForward(2 * time.Second)

	added, err := d.Add(ctx, "key-3")
	if err != nil {
		t.Fatalf("add after expiry: %v", err)
	}
	if !added {
		t.Fatal("expected key to expire")
	}
}
