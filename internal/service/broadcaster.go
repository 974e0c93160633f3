package service

import (
	"context"
	"decklobby/internal/cache"
	"decklobby/internal/model"
	"time"

	"go.uber.org/zap"
)

// Broadcaster pushes session snapshots to realtime subscribers (avoids import cycle)
type Broadcaster interface {
	PublishSnapshot(session *model.Session)
}

// Broadcasters fans one snapshot out to several broadcasters in order
type Broadcasters []Broadcaster

func (bs Broadcasters) PublishSnapshot(session *model.Session) {
	for _, b := range bs {
		b.PublishSnapshot(session)
	}
}

const mirrorTimeout = 2 * time.Second

// SnapshotMirror writes every published snapshot to the session cache.
// Failures are logged; the in-memory store stays authoritative.
type SnapshotMirror struct {
	cache  cache.SessionCache
	logger *zap.Logger
}

// NewSnapshotMirror creates a broadcaster that mirrors snapshots into cache
func NewSnapshotMirror(sessionCache cache.SessionCache, logger *zap.Logger) *SnapshotMirror {
	return &SnapshotMirror{cache: sessionCache, logger: logger}
}

func (m *SnapshotMirror) PublishSnapshot(session *model.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := m.cache.Set(ctx, session); err != nil {
		m.logger.Warn("session mirror write failed",
			zap.String("session_id", session.ID),
			zap.Int("version", session.Version),
			zap.Error(err))
	}
}
