package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"boardly-api/domain"
)

// Cache holds Redis-backed copies of the child-listing reads (boards for
// a user, card lists for a board, cards for a list). Mutating services
// evict the affected key; a nil client disables caching entirely.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a cache using the provided Redis client and TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{redis: client, ttl: ttl}
}

// LoadBoards returns the cached board listing for the user, if present.
func (c *Cache) LoadBoards(ctx context.Context, userID string) ([]domain.Board, bool) {
	var boards []domain.Board
	if !c.load(ctx, boardsCacheKey(userID), &boards) {
		return nil, false
	}
	return boards, true
}

// StoreBoards caches the board listing for the user.
func (c *Cache) StoreBoards(ctx context.Context, userID string, boards []domain.Board) {
	c.store(ctx, boardsCacheKey(userID), boards)
}

// EvictBoards drops the cached board listing for the user.
func (c *Cache) EvictBoards(ctx context.Context, userID string) {
	c.evict(ctx, boardsCacheKey(userID))
}

// LoadCardLists returns the cached card-list listing for the board.
func (c *Cache) LoadCardLists(ctx context.Context, boardID string) ([]domain.CardList, bool) {
	var lists []domain.CardList
	if !c.load(ctx, cardListsCacheKey(boardID), &lists) {
		return nil, false
	}
	return lists, true
}

// StoreCardLists caches the card-list listing for the board.
func (c *Cache) StoreCardLists(ctx context.Context, boardID string, lists []domain.CardList) {
	c.store(ctx, cardListsCacheKey(boardID), lists)
}

// EvictCardLists drops the cached card-list listing for the board.
func (c *Cache) EvictCardLists(ctx context.Context, boardID string) {
	c.evict(ctx, cardListsCacheKey(boardID))
}

// LoadCards returns the cached card listing for the card list.
func (c *Cache) LoadCards(ctx context.Context, listID string) ([]domain.Card, bool) {
	var cards []domain.Card
	if !c.load(ctx, cardsCacheKey(listID), &cards) {
		return nil, false
	}
	return cards, true
}

// StoreCards caches the card listing for the card list.
func (c *Cache) StoreCards(ctx context.Context, listID string, cards []domain.Card) {
	c.store(ctx, cardsCacheKey(listID), cards)
}

// EvictCards drops the cached card listing for the card list.
func (c *Cache) EvictCards(ctx context.Context, listID string) {
	c.evict(ctx, cardsCacheKey(listID))
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c == nil || c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, val any) {
	if c == nil || c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, key string) {
	if c == nil || c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, key).Result()
}

func boardsCacheKey(userID string) string {
	return "boards:" + userID
}

func cardListsCacheKey(boardID string) string {
	return "cardlists:" + boardID
}

func cardsCacheKey(listID string) string {
	return "cards:" + listID
}
