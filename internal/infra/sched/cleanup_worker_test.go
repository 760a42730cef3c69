//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/LACS-Official/activation-codes-service/internal/domain/model"
	"github.com/LACS-Official/activation-codes-service/internal/usecase"
)

type cleanupOnlyUC struct {
	usecase.CodeUseCase

	unusedCalls  atomic.Int32
	expiredCalls atomic.Int32
	unusedErr    error
}

func (m *cleanupOnlyUC) CleanupUnused(ctx context.Context, minutesOld int) (*usecase.UnusedCleanupResult, error) {
	m.unusedCalls.Add(1)
	if m.unusedErr != nil {
		return nil, m.unusedErr
	}
	return &usecase.UnusedCleanupResult{DeletedCount: 1, MinutesOld: minutesOld}, nil
}

func (m *cleanupOnlyUC) CleanupExpired(ctx context.Context, daysOld int) (*usecase.ExpiredCleanupResult, error) {
	m.expiredCalls.Add(1)
	return &usecase.ExpiredCleanupResult{DeletedCount: 2}, nil
}

func (m *cleanupOnlyUC) Verify(ctx context.Context, code string) (*model.ActivationCode, error) {
	panic("not used")
}

func TestCleanupWorkerRunsBothSweeps(t *testing.T) {
	logger := zerolog.Nop()
	uc := &cleanupOnlyUC{}
	w := NewCleanupWorker(5*time.Millisecond, 5, 30, uc, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for uc.unusedCalls.Load() < 2 || uc.expiredCalls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("worker did not tick: unused=%d expired=%d", uc.unusedCalls.Load(), uc.expiredCalls.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCleanupWorkerUnusedFailureDoesNotBlockExpiredSweep(t *testing.T) {
	logger := zerolog.Nop()
	uc := &cleanupOnlyUC{unusedErr: errors.New("db down")}
	w := NewCleanupWorker(time.Hour, 5, 30, uc, &logger)

	w.runOnce(context.Background())

	if uc.unusedCalls.Load() != 1 || uc.expiredCalls.Load() != 1 {
		t.Fatalf("expected both sweeps to run once, got unused=%d expired=%d", uc.unusedCalls.Load(), uc.expiredCalls.Load())
	}
}

func TestCleanupWorkerDisabledWithZeroInterval(t *testing.T) {
	logger := zerolog.Nop()
	uc := &cleanupOnlyUC{}
	w := NewCleanupWorker(0, 5, 30, uc, &logger)

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("disabled worker should return nil, got %v", err)
	}
	if uc.unusedCalls.Load() != 0 {
		t.Fatal("disabled worker must not sweep")
	}
}
