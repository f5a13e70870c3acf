package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestAllow_WithinBurst(t *testing.T) {
	rdb := newMiniRedis(t)
	defer rdb.Close()

	l := New(rdb, "test:login", 1, 3)
	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(context.Background(), "alice@example.com")
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("attempt %d within burst should be allowed", i)
		}
	}
}

func TestAllow_RejectsAfterBurst(t *testing.T) {
	rdb := newMiniRedis(t)
	defer rdb.Close()

	l := New(rdb, "test:login", 0.001, 2)
	for i := 0; i < 2; i++ {
		if allowed, _ := l.Allow(context.Background(), "alice@example.com"); !allowed {
			t.Fatalf("attempt %d within burst should be allowed", i)
		}
	}
	allowed, err := l.Allow(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Fatal("attempt past burst should be rejected")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	rdb := newMiniRedis(t)
	defer rdb.Close()

	l := New(rdb, "test:login", 0.001, 1)
	if allowed, _ := l.Allow(context.Background(), "alice@example.com"); !allowed {
		t.Fatal("first attempt for alice should pass")
	}
	if allowed, _ := l.Allow(context.Background(), "alice@example.com"); allowed {
		t.Fatal("second attempt for alice should be rejected")
	}
	if allowed, _ := l.Allow(context.Background(), "bob@example.com"); !allowed {
		t.Fatal("bob's bucket must be independent of alice's")
	}
}

func TestAllow_NilLimiterAllowsAll(t *testing.T) {
	var l *Limiter
	for i := 0; i < 10; i++ {
		allowed, err := l.Allow(context.Background(), "anyone")
		if err != nil || !allowed {
			t.Fatalf("nil limiter must allow: allowed=%v err=%v", allowed, err)
		}
	}
}

func TestAllow_FailsOpenOnRedisError(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	l := New(rdb, "test:login", 1, 1)
	srv.Close()

	allowed, err := l.Allow(context.Background(), "alice@example.com")
	if err == nil {
		t.Fatal("expected error from closed redis")
	}
	if !allowed {
		t.Fatal("limiter must fail open on redis errors")
	}
}
