package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SnapshotPurger drops expired captures and idle sessions.
type SnapshotPurger interface {
	Purge(ctx context.Context, snapshotsBefore, sessionsBefore time.Time) (model.PurgeStats, error)
}

// AttemptExpirer marks abandoned attempts as expired.
type AttemptExpirer interface {
	ExpireOverdue(ctx context.Context, grace time.Duration, now time.Time) (int64, error)
}

type RetentionConfig struct {
	Schedule          string
	SnapshotRetention time.Duration
	SessionTTL        time.Duration
	// ExpiryGrace is only used when an expirer is set.
	ExpiryGrace time.Duration
}

// RetentionWorker runs the periodic cleanup jobs on a cron schedule.
type RetentionWorker struct {
	cfg      RetentionConfig
	snaps    SnapshotPurger
	attempts AttemptExpirer
	cron     *cron.Cron
	log      zerolog.Logger
	now      func() time.Time
}

// NewRetentionWorker creates the worker. A nil expirer disables the
// attempt expiry sweep.
func NewRetentionWorker(cfg RetentionConfig, snaps SnapshotPurger, attempts AttemptExpirer, log zerolog.Logger) *RetentionWorker {
	return &RetentionWorker{
		cfg:      cfg,
		snaps:    snaps,
		attempts: attempts,
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		log:      log.With().Str("component", "retention_worker").Logger(),
		now:      time.Now,
	}
}

// Start schedules the sweep and blocks until ctx is cancelled, then waits
// for a running sweep to finish.
func (w *RetentionWorker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.cfg.Schedule, func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 4*time.Minute)
		defer cancel()
		w.RunOnce(runCtx)
	})
	if err != nil {
		return fmt.Errorf("retention schedule %q: %w", w.cfg.Schedule, err)
	}

	w.log.Info().
		Str("schedule", w.cfg.Schedule).
		Dur("snapshot_retention", w.cfg.SnapshotRetention).
		Bool("expiry_sweep", w.attempts != nil).
		Msg("RetentionWorker started")
	w.cron.Start()

	<-ctx.Done()
	<-w.cron.Stop().Done()
	w.log.Info().Msg("RetentionWorker stopped")
	return nil
}

// RunOnce performs one sweep.
func (w *RetentionWorker) RunOnce(ctx context.Context) {
	now := w.now()

	stats, err := w.snaps.Purge(ctx, now.Add(-w.cfg.SnapshotRetention), now.Add(-w.cfg.SessionTTL))
	if err != nil {
		w.log.Error().Err(err).Msg("Snapshot purge failed")
	} else {
		w.log.Info().
			Int64("snapshots", stats.Snapshots).
			Int64("second_cam_snapshots", stats.SecondCamSnapshots).
			Int64("sessions", stats.Sessions).
			Msg("Snapshot purge done")
	}

	if w.attempts == nil {
		return
	}
	n, err := w.attempts.ExpireOverdue(ctx, w.cfg.ExpiryGrace, now)
	if err != nil {
		w.log.Error().Err(err).Msg("Attempt expiry sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int64("expired", n).Msg("Expired abandoned attempts")
	}
}
