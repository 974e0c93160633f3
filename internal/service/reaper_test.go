package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReaperSweep(t *testing.T) {
	ctx := context.Background()
	lobby, _ := newTestLobby(t, nil)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lobby.now = func() time.Time { return clock }

	created, err := lobby.CreateSession(ctx, "Alice", nil)
	require.NoError(t, err)

	reaper := NewReaper(lobby, "@every 1h", 30*time.Minute, zap.NewNop())
	reaper.now = func() time.Time { return clock.Add(10 * time.Minute) }
	assert.Equal(t, 0, reaper.Sweep(ctx))

	reaper.now = func() time.Time { return clock.Add(time.Hour) }
	assert.Equal(t, 1, reaper.Sweep(ctx))

	_, err = lobby.GetSession(ctx, created.Session.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReaperStartStop(t *testing.T) {
	lobby, _ := newTestLobby(t, nil)

	bad := NewReaper(lobby, "not a schedule", time.Minute, zap.NewNop())
	assert.Error(t, bad.Start())

	r := NewReaper(lobby, "@every 1h", time.Minute, zap.NewNop())
	require.NoError(t, r.Start())
	r.Stop()
	r.Stop()
}
