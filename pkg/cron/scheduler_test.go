package cron

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brentcurtis76/casa-reconcile/pkg/config"
)

type stubSweeper struct {
	confirmed int
	err       error
	calls     int
}

func (s *stubSweeper) AutoConfirmSweep(_ context.Context) (int, error) {
	s.calls++
	return s.confirmed, s.err
}

func TestRunNow(t *testing.T) {
	t.Run("runs the sweep synchronously and reports the count", func(t *testing.T) {
		sweeper := &stubSweeper{confirmed: 3}
		s := NewScheduler(sweeper, config.SchedulerConfig{}, slog.Default())

		confirmed, err := s.RunNow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, confirmed)
		assert.Equal(t, 1, sweeper.calls)
	})

	t.Run("propagates sweep failures", func(t *testing.T) {
		boom := errors.New("boom")
		s := NewScheduler(&stubSweeper{err: boom}, config.SchedulerConfig{}, slog.Default())

		_, err := s.RunNow(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}

func TestStart(t *testing.T) {
	t.Run("disabled auto-confirm registers no jobs", func(t *testing.T) {
		s := NewScheduler(&stubSweeper{}, config.SchedulerConfig{AutoConfirmEnabled: false}, slog.Default())

		require.NoError(t, s.Start())
		assert.Empty(t, s.cron.Entries())
	})

	t.Run("enabled auto-confirm schedules the sweep", func(t *testing.T) {
		cfg := config.SchedulerConfig{AutoConfirmEnabled: true, AutoConfirmSpec: "@hourly"}
		s := NewScheduler(&stubSweeper{}, cfg, slog.Default())

		require.NoError(t, s.Start())
		defer func() { <-s.Stop().Done() }()
		assert.Len(t, s.cron.Entries(), 1)
	})
}
