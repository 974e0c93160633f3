package service

import (
	"context"
	"decklobby/internal/cache"
	"decklobby/internal/model"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCardQuery = "type:creature"

	// Bounds a shared upstream call, which outlives any one caller's context.
	upstreamTimeout = 15 * time.Second
)

// CardService proxies the card catalog, caching pages in Redis when a cache is
// configured and collapsing identical in-flight queries.
type CardService struct {
	source CardSource
	cache  cache.CardCache
	group  singleflight.Group
	logger *zap.Logger
}

// NewCardService creates a new card service. cardCache may be nil.
func NewCardService(source CardSource, cardCache cache.CardCache, logger *zap.Logger) *CardService {
	return &CardService{
		source: source,
		cache:  cardCache,
		logger: logger,
	}
}

// BuildSearchQuery turns text plus color/type filters into catalog syntax:
// each color becomes c:<color>, types are OR-ed in a group, and an empty query
// falls back to all creatures.
func BuildSearchQuery(q model.CardQuery) string {
	var parts []string
	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, text)
	}
	for _, c := range q.Colors {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, "c:"+c)
		}
	}

	var types []string
	for _, t := range q.Types {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, "t:"+t)
		}
	}
	if len(types) > 0 {
		parts = append(parts, "("+strings.Join(types, " OR ")+")")
	}

	if len(parts) == 0 {
		return defaultCardQuery
	}
	return strings.Join(parts, " ")
}

// Search returns one page of cards matching q
func (s *CardService) Search(ctx context.Context, q model.CardQuery) (*model.CardPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	if s.cache != nil {
		page, err := s.cache.GetPage(ctx, q)
		if err != nil {
			s.logger.Warn("card cache read failed", zap.Error(err))
		} else if page != nil {
			return page, nil
		}
	}

	v, err := s.shared(ctx, "search:"+cache.QueryKey(q), func(ctx context.Context) (interface{}, error) {
		page, err := s.source.Search(ctx, BuildSearchQuery(q), q.Page)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetPage(ctx, q, page); err != nil {
				s.logger.Warn("card cache write failed", zap.Error(err))
			}
		}
		return page, nil
	})
	if err != nil {
		return nil, fmt.Errorf("card search failed: %w", err)
	}
	return v.(*model.CardPage), nil
}

// GetCard returns one card by catalog id
func (s *CardService) GetCard(ctx context.Context, id string) (*model.Card, error) {
	if s.cache != nil {
		card, err := s.cache.GetCard(ctx, id)
		if err != nil {
			s.logger.Warn("card cache read failed", zap.Error(err))
		} else if card != nil {
			return card, nil
		}
	}

	v, err := s.shared(ctx, "card:"+id, func(ctx context.Context) (interface{}, error) {
		return s.source.Card(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("card lookup failed: %w", err)
	}
	card, _ := v.(*model.Card)
	if card == nil {
		return nil, fmt.Errorf("%w: card %s", ErrNotFound, id)
	}
	if s.cache != nil {
		if err := s.cache.SetCard(ctx, card); err != nil {
			s.logger.Warn("card cache write failed", zap.Error(err))
		}
	}
	return card, nil
}

// shared runs fn once per key across concurrent callers. The call gets its own
// deadline instead of the first caller's, so one caller going away does not fail
// the others; each caller still stops waiting when its own ctx ends.
func (s *CardService) shared(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), upstreamTimeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
