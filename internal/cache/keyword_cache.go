package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/n-spicher/shipwright/internal/model"
)

// KeywordCache keeps each user's keyword list in Redis so the ask flow does
// not hit the database for every question. Entries are invalidated on any
// keyword mutation and expire on their own after the TTL.
type KeywordCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewKeywordCache(client *redisv9.Client, ttl time.Duration) *KeywordCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &KeywordCache{client: client, ttl: ttl}
}

func (c *KeywordCache) Get(ctx context.Context, userID uint) ([]model.Keyword, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get keywords failed: %w", err)
	}

	var keywords []model.Keyword
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached keywords failed: %w", err)
	}
	return keywords, true, nil
}

func (c *KeywordCache) Set(ctx context.Context, userID uint, keywords []model.Keyword) error {
	payload, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("marshal keyword cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set keywords failed: %w", err)
	}
	return nil
}

func (c *KeywordCache) Invalidate(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete keywords failed: %w", err)
	}
	return nil
}

func (c *KeywordCache) key(userID uint) string {
	return fmt.Sprintf("keywords:user:%d", userID)
}
