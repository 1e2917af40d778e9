package storage

import (
	"context"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"boardly-api/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, ttl), mr
}

func TestCacheBoardsRoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	boards := []domain.Board{{ID: "board_1", Name: "plan", Members: []string{"user_u"}, CardLists: []string{}}}

	if _, ok := cache.LoadBoards(ctx, "user_u"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	cache.StoreBoards(ctx, "user_u", boards)
	if ttl := mr.TTL(boardsCacheKey("user_u")); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	got, ok := cache.LoadBoards(ctx, "user_u")
	if !ok {
		t.Fatalf("expected hit after store")
	}
	if !reflect.DeepEqual(got, boards) {
		t.Fatalf("unexpected boards: %#v", got)
	}

	cache.EvictBoards(ctx, "user_u")
	if _, ok := cache.LoadBoards(ctx, "user_u"); ok {
		t.Fatalf("expected miss after evict")
	}
}

func TestCacheCardListsAndCardsKeysAreIndependent(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.StoreCardLists(ctx, "board_1", []domain.CardList{{ID: "cardlist_1", BoardID: "board_1", Cards: []string{}}})
	cache.StoreCards(ctx, "cardlist_1", []domain.Card{{ID: "card_1", ListID: "cardlist_1"}})

	cache.EvictCardLists(ctx, "board_1")
	if _, ok := cache.LoadCardLists(ctx, "board_1"); ok {
		t.Fatalf("expected card-list listing evicted")
	}
	if _, ok := cache.LoadCards(ctx, "cardlist_1"); !ok {
		t.Fatalf("expected card listing untouched")
	}
}

func TestCacheCorruptEntryDropsToMiss(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	if err := mr.Set(boardsCacheKey("user_u"), "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, ok := cache.LoadBoards(ctx, "user_u"); ok {
		t.Fatalf("expected corrupt entry to miss")
	}
	if mr.Exists(boardsCacheKey("user_u")) {
		t.Fatalf("expected corrupt entry deleted")
	}
}

func TestCacheZeroTTLDisablesStore(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	ctx := context.Background()

	cache.StoreBoards(ctx, "user_u", []domain.Board{{ID: "board_1"}})
	if mr.Exists(boardsCacheKey("user_u")) {
		t.Fatalf("expected nothing stored with zero TTL")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	ctx := context.Background()
	var cache *Cache
	cache.StoreBoards(ctx, "user_u", nil)
	cache.EvictCards(ctx, "cardlist_1")
	if _, ok := cache.LoadCardLists(ctx, "board_1"); ok {
		t.Fatalf("expected nil cache to always miss")
	}

	disabled := NewCache(nil, time.Minute)
	disabled.StoreCards(ctx, "cardlist_1", nil)
	if _, ok := disabled.LoadCards(ctx, "cardlist_1"); ok {
		t.Fatalf("expected clientless cache to always miss")
	}
}
