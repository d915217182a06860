// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brentcurtis76/casa-reconcile/pkg/config"
)

// Sweeper is the auto-confirm job the scheduler drives.
type Sweeper interface {
	AutoConfirmSweep(ctx context.Context) (int, error)
}

// Scheduler runs the periodic auto-confirm sweep over pending proposals.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	cfg     config.SchedulerConfig
	logger  *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(sweeper Sweeper, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start begins scheduled jobs. With auto-confirm disabled it is a no-op.
func (s *Scheduler) Start() error {
	if !s.cfg.AutoConfirmEnabled {
		s.logger.Info("auto-confirm sweep disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.AutoConfirmSpec, s.runSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("spec", s.cfg.AutoConfirmSpec),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

const sweepTimeout = 5 * time.Minute

// RunNow triggers the sweep immediately, outside the schedule. The one-shot
// CLI path uses it so scheduled and manual sweeps share the same timeout.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	return s.sweeper.AutoConfirmSweep(ctx)
}

func (s *Scheduler) runSweep() {
	confirmed, err := s.RunNow(context.Background())
	if err != nil {
		s.logger.Error("auto-confirm sweep failed", slog.Any("error", err))
		return
	}
	s.logger.Debug("auto-confirm sweep finished", slog.Int("confirmed", confirmed))
}
