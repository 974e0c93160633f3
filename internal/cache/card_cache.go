package cache

import (
	"context"
	"crypto/sha1"
	"decklobby/internal/model"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CardCache handles Redis operations for card catalog lookups
type CardCache interface {
	GetPage(ctx context.Context, query model.CardQuery) (*model.CardPage, error)
	SetPage(ctx context.Context, query model.CardQuery, page *model.CardPage) error
	GetCard(ctx context.Context, id string) (*model.Card, error)
	SetCard(ctx context.Context, card *model.Card) error
}

type cardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCardCache creates a new card cache
func NewCardCache(client *redis.Client, ttl time.Duration) CardCache {
	return &cardCache{
		client: client,
		ttl:    ttl,
	}
}

// QueryKey is a stable fingerprint of a search query.
func QueryKey(q model.CardQuery) string {
	raw := fmt.Sprintf("%s|%s|%s|%d",
		strings.ToLower(strings.TrimSpace(q.Text)),
		strings.ToLower(strings.Join(q.Colors, ",")),
		strings.ToLower(strings.Join(q.Types, ",")),
		q.Page)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (c *cardCache) pageKey(q model.CardQuery) string {
	return fmt.Sprintf("cards:search:%s", QueryKey(q))
}

func (c *cardCache) cardKey(id string) string {
	return fmt.Sprintf("cards:id:%s", id)
}

func (c *cardCache) GetPage(ctx context.Context, query model.CardQuery) (*model.CardPage, error) {
	var page model.CardPage
	found, err := c.get(ctx, c.pageKey(query), &page)
	if err != nil || !found {
		return nil, err
	}
	return &page, nil
}

func (c *cardCache) SetPage(ctx context.Context, query model.CardQuery, page *model.CardPage) error {
	return c.set(ctx, c.pageKey(query), page)
}

func (c *cardCache) GetCard(ctx context.Context, id string) (*model.Card, error) {
	var card model.Card
	found, err := c.get(ctx, c.cardKey(id), &card)
	if err != nil || !found {
		return nil, err
	}
	return &card, nil
}

func (c *cardCache) SetCard(ctx context.Context, card *model.Card) error {
	return c.set(ctx, c.cardKey(card.ID), card)
}

func (c *cardCache) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, err
	}
	return true, nil
}

func (c *cardCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
