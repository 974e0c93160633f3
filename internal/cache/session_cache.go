package cache

import (
	"context"
	"decklobby/internal/model"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache mirrors the latest snapshot of each lobby session into Redis
// so other processes can read lobby state without the in-memory store.
type SessionCache interface {
	Set(ctx context.Context, session *model.Session) error
}

// Writes only land if the stored version is older, so snapshots published out
// of order never roll the mirror back.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

type sessionCache struct {
	client    *redis.Client
	ttl       time.Duration
	closedTTL time.Duration
}

// NewSessionCache creates a Redis session mirror. Open and active sessions
// live for ttl after their last change; closed ones linger for closedTTL.
func NewSessionCache(client *redis.Client, ttl, closedTTL time.Duration) SessionCache {
	return &sessionCache{
		client:    client,
		ttl:       ttl,
		closedTTL: closedTTL,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if session.Status == model.SessionClosed {
		ttl = c.closedTTL
	}
	seconds := int(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return setIfNewer.Run(ctx, c.client, []string{c.key(session.ID)}, session.Version, data, seconds).Err()
}
