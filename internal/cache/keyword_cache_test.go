package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"

	"github.com/n-spicher/shipwright/internal/model"
)

func newTestCache(t *testing.T) (*KeywordCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewKeywordCache(client, time.Minute), mr
}

func TestKeywordCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	keywords := []model.Keyword{
		{ID: 1, UserID: 7, Term: "BOD", ExampleText: "Base of design:"},
		{ID: 2, UserID: 7, Term: "RFI", ExampleText: "Request for information"},
	}
	if err := cache.Set(ctx, 7, keywords); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, hit, err := cache.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].Term != "BOD" || got[1].Term != "RFI" {
		t.Errorf("cached keywords = %+v", got)
	}
}

func TestKeywordCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, hit, err := cache.Get(context.Background(), 99)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("expected miss for unknown user")
	}
}

func TestKeywordCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, 7, []model.Keyword{{ID: 1, UserID: 7, Term: "BOD"}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Invalidate(ctx, 7); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	_, hit, err := cache.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("expected miss after invalidation")
	}
}

func TestKeywordCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, 7, []model.Keyword{{ID: 1, UserID: 7, Term: "BOD"}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	_, hit, err := cache.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("expected miss after TTL expiry")
	}
}

func TestKeywordCacheIsolatedPerUser(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, 1, []model.Keyword{{ID: 1, UserID: 1, Term: "BOD"}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Set(ctx, 2, []model.Keyword{{ID: 2, UserID: 2, Term: "RFI"}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Invalidate(ctx, 1); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	got, hit, err := cache.Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit || len(got) != 1 || got[0].Term != "RFI" {
		t.Errorf("user 2 entry affected by user 1 invalidation: hit=%v got=%+v", hit, got)
	}
}
