package service

import (
	"context"
	"decklobby/internal/model"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// CardSource is the read-only card catalog
type CardSource interface {
	Search(ctx context.Context, query string, page int) (*model.CardPage, error)
	Card(ctx context.Context, id string) (*model.Card, error)
}

// ScryfallClient wraps the Scryfall card search API
type ScryfallClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
}

// NewScryfallClient creates a new card catalog client
func NewScryfallClient(baseURL string, logger *zap.Logger) *ScryfallClient {
	return &ScryfallClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		maxRetries: 3,
		logger:     logger,
	}
}

// doRequest performs a GET with retry on rate limiting. A 404 is returned as
// (nil, http.StatusNotFound, nil) so callers can map it.
func (c *ScryfallClient) doRequest(ctx context.Context, path string) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "decklobby/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("card api request failed", zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(err))
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			c.logger.Warn("card api rate limited", zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
			lastErr = fmt.Errorf("rate limited")
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, resp.StatusCode, nil
		}
		if resp.StatusCode >= 400 {
			return nil, resp.StatusCode, fmt.Errorf("card api error %d: %s", resp.StatusCode, string(body))
		}
		return body, resp.StatusCode, nil
	}
	return nil, 0, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Search runs a catalog query. No matches is an empty page, not an error.
func (c *ScryfallClient) Search(ctx context.Context, query string, page int) (*model.CardPage, error) {
	if page < 1 {
		page = 1
	}
	path := "/cards/search?q=" + url.QueryEscape(query) + "&page=" + strconv.Itoa(page)

	body, status, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return &model.CardPage{Data: []model.Card{}}, nil
	}

	var result model.CardPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	if result.Data == nil {
		result.Data = []model.Card{}
	}
	return &result, nil
}

// Card fetches one card by id; unknown ids return (nil, nil)
func (c *ScryfallClient) Card(ctx context.Context, id string) (*model.Card, error) {
	body, status, err := c.doRequest(ctx, "/cards/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	var card model.Card
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("failed to parse card response: %w", err)
	}
	return &card, nil
}
