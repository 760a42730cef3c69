package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/LACS-Official/activation-codes-service/internal/infra/metrics"
	"github.com/LACS-Official/activation-codes-service/internal/usecase"
)

// CleanupWorker periodically removes stale activation codes via the use case:
// unused codes older than a freshness threshold and long-expired unused codes.
type CleanupWorker struct {
	interval      time.Duration
	unusedMinutes int
	expiredDays   int
	codeUC        usecase.CodeUseCase
	log           *zerolog.Logger
}

func NewCleanupWorker(interval time.Duration, unusedMinutes, expiredDays int, codeUC usecase.CodeUseCase, logger *zerolog.Logger) *CleanupWorker {
	wLog := logger.With().Str("component", "CleanupWorker").Logger()
	return &CleanupWorker{
		interval:      interval,
		unusedMinutes: unusedMinutes,
		expiredDays:   expiredDays,
		codeUC:        codeUC,
		log:           &wLog,
	}
}

func (w *CleanupWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.log.Info().Msg("cleanup worker disabled")
		return nil
	}

	w.log.Info().
		Dur("interval", w.interval).
		Int("unusedMinutes", w.unusedMinutes).
		Int("expiredDays", w.expiredDays).
		Msg("Starting cleanup worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping cleanup worker")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *CleanupWorker) runOnce(ctx context.Context) {
	unused, err := w.codeUC.CleanupUnused(ctx, w.unusedMinutes)
	metrics.IncCleanupRun("unused", err == nil)
	if err != nil {
		w.log.Error().Err(err).Msg("unused cleanup failed")
	} else if unused.DeletedCount > 0 {
		w.log.Info().Int("count", unused.DeletedCount).Msg("unused codes removed")
	}

	expired, err := w.codeUC.CleanupExpired(ctx, w.expiredDays)
	metrics.IncCleanupRun("expired", err == nil)
	if err != nil {
		w.log.Error().Err(err).Msg("expired cleanup failed")
	} else if expired.DeletedCount > 0 {
		w.log.Info().Int("count", expired.DeletedCount).Msg("expired codes removed")
	}
}
