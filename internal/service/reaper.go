package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reaper periodically closes open sessions nobody has touched for idleTTL,
// so abandoned lobbies give their codes back.
type Reaper struct {
	lobby    *LobbyService
	schedule string
	idleTTL  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
}

// NewReaper creates a reaper; schedule uses cron syntax or "@every 1m".
func NewReaper(lobby *LobbyService, schedule string, idleTTL time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		lobby:    lobby,
		schedule: schedule,
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the sweep and starts the scheduler
func (r *Reaper) Start() error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.schedule, func() {
		r.Sweep(context.Background())
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("session reaper running",
		zap.String("schedule", r.schedule),
		zap.Duration("idle_ttl", r.idleTTL))
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (r *Reaper) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// Sweep closes idle sessions once and returns how many it closed
func (r *Reaper) Sweep(ctx context.Context) int {
	n, err := r.lobby.CloseIdleSessions(ctx, r.now().Add(-r.idleTTL))
	if err != nil {
		r.logger.Error("session sweep failed", zap.Error(err))
	}
	if n > 0 {
		r.logger.Info("session sweep closed idle sessions", zap.Int("closed", n))
	}
	return n
}
