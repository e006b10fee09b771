package cache_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	rc, err := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: server.Addr()}))
	if err != nil {
		t.Fatalf("create cache failed: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, server
}

func TestRedisCacheBasicOps(t *testing.T) {
	rc, server := newTestCache(t)
	ctx := context.Background()

	if v, err := rc.Get(ctx, "missing"); err != nil || v != "" {
		t.Fatalf("expected empty miss, got %q %v", v, err)
	}
	if err := rc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if v, _ := rc.Get(ctx, "k"); v != "v" {
		t.Fatalf("unexpected value: %q", v)
	}
	ok, err := rc.SetNX(ctx, "k", "other", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected SetNX to fail on existing key: %v %v", ok, err)
	}
	if n, _ := rc.Incr(ctx, "counter"); n != 1 {
		t.Fatalf("unexpected counter: %d", n)
	}
	if err := rc.Expire(ctx, "counter", 5*time.Second); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if ttl, _ := rc.TTL(ctx, "counter"); ttl <= 0 {
		t.Fatalf("expected ttl, got %v", ttl)
	}
	server.FastForward(6 * time.Second)
	if v, _ := rc.Get(ctx, "counter"); v != "" {
		t.Fatalf("expected counter to expire, got %q", v)
	}
	if err := rc.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if server.Exists("k") {
		t.Fatalf("expected key to be removed")
	}
}

func TestGetWithCached(t *testing.T) {
	rc, server := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(value int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) {
			calls++
			return value, nil
		}
	}
	marshal := func(v int) (string, error) { return strconv.Itoa(v), nil }
	isEmpty := func(v int) bool { return v == 0 }

	for i := 0; i < 2; i++ {
		got, err := cache.GetWithCached(ctx, rc, "num", time.Minute, time.Second, isEmpty, marshal, strconv.Atoi, load(42))
		if err != nil || got != 42 {
			t.Fatalf("unexpected result: %d %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}

	got, err := cache.GetWithCached(ctx, rc, "absent", time.Minute, time.Second, isEmpty, marshal, strconv.Atoi, load(0))
	if err != nil || got != 0 {
		t.Fatalf("unexpected result: %d %v", got, err)
	}
	if v, _ := server.Get("absent"); v != cache.NullCacheValue {
		t.Fatalf("expected null marker, got %q", v)
	}
}

func TestGetWithCachedPropagatesLoadError(t *testing.T) {
	rc, _ := newTestCache(t)
	want := errors.New("store down")
	_, err := cache.GetWithCached(context.Background(), rc, "k", time.Minute, time.Second,
		func(v int) bool { return v == 0 },
		func(v int) (string, error) { return strconv.Itoa(v), nil },
		strconv.Atoi,
		func(context.Context) (int, error) { return 0, want },
	)
	if !errors.Is(err, want) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateCachedDropsKeys(t *testing.T) {
	rc, server := newTestCache(t)
	_ = server.Set("a", "1")
	_ = server.Set("b", "2")

	if err := cache.UpdateCached(context.Background(), rc, func(context.Context) error { return nil }, "a", "b"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if server.Exists("a") || server.Exists("b") {
		t.Fatalf("expected keys to be invalidated")
	}

	_ = server.Set("a", "1")
	failed := errors.New("write failed")
	if err := cache.UpdateCached(context.Background(), rc, func(context.Context) error { return failed }, "a"); !errors.Is(err, failed) {
		t.Fatalf("unexpected error: %v", err)
	}
	if !server.Exists("a") {
		t.Fatalf("key must survive a failed write")
	}
}

func TestJitterTTL(t *testing.T) {
	ttl := 10 * time.Minute
	for i := 0; i < 20; i++ {
		got := cache.JitterTTL(ttl)
		if got > ttl || got < ttl-ttl/10 {
			t.Fatalf("jitter out of range: %v", got)
		}
	}
	if cache.JitterTTL(0) != 0 {
		t.Fatalf("zero ttl must stay zero")
	}
}

func TestNewRedisCacheWithConfig(t *testing.T) {
	server := miniredis.RunT(t)
	cfg := cache.DefaultRedisConfig()
	cfg.Addr = server.Addr()
	rc, err := cache.NewRedisCacheWithConfig(cfg)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer rc.Close()
	if err := rc.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	if _, err := cache.NewRedisCacheWithConfig(&cache.RedisConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
	if _, err := cache.NewRedisCacheWithConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
