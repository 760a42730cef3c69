//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/LACS-Official/activation-codes-service/internal/domain"
	"github.com/LACS-Official/activation-codes-service/internal/domain/model"
	"github.com/LACS-Official/activation-codes-service/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ---- Mock TransactionManager ----

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// ---- Mock ActivationCodeRepository ----

// MockCodeRepo implements the repository port with overridable function
// fields, falling back to a small in-memory store.
type MockCodeRepo struct {
	mu    sync.Mutex
	store map[string]*model.ActivationCode // keyed by id

	CreateFunc              func(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error
	FindByCodeFunc          func(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error)
	FindByIDFunc            func(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error)
	MarkUsedFunc            func(ctx context.Context, tx repository.Tx, id string, usedAt time.Time) (bool, error)
	ListFunc                func(ctx context.Context, tx repository.Tx, status model.ListStatus, now time.Time, offset, limit int) ([]*model.ActivationCode, int, error)
	DeleteFunc              func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	StatsFunc               func(ctx context.Context, tx repository.Tx, now time.Time) (*repository.StatusCounts, error)
	DeleteExpiredBeforeFunc func(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error)
	DeleteUnusedBeforeFunc  func(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.ActivationCode, error)
	ListUnusedBeforeFunc    func(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.ActivationCode, error)

	DeleteUnusedCalls int
}

var _ repository.ActivationCodeRepository = (*MockCodeRepo)(nil)

func NewMockCodeRepo() *MockCodeRepo {
	return &MockCodeRepo{store: make(map[string]*model.ActivationCode)}
}

func (m *MockCodeRepo) Create(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.store[code.ID] = &cp
	return nil
}

func (m *MockCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.store {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCodeNotFound
}

func (m *MockCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.store[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrCodeNotFound
}

func (m *MockCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, id string, usedAt time.Time) (bool, error) {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, tx, id, usedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok || c.IsUsed {
		return false, nil
	}
	c.MarkUsed(usedAt)
	return true, nil
}

func (m *MockCodeRepo) List(ctx context.Context, tx repository.Tx, status model.ListStatus, now time.Time, offset, limit int) ([]*model.ActivationCode, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tx, status, now, offset, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*model.ActivationCode
	for _, c := range m.store {
		if matchesStatus(c, status, now) {
			cp := *c
			matched = append(matched, &cp)
		}
	}
	total := len(matched)
	if offset >= total {
		return []*model.ActivationCode{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func matchesStatus(c *model.ActivationCode, status model.ListStatus, now time.Time) bool {
	switch status {
	case model.ListUsed:
		return c.IsUsed
	case model.ListUnused:
		return !c.IsUsed
	case model.ListExpired:
		return model.StatusOf(c, now) == model.StatusExpired
	case model.ListActive:
		return model.StatusOf(c, now) == model.StatusActive
	default:
		return true
	}
}

func (m *MockCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return false, nil
	}
	delete(m.store, id)
	return true, nil
}

func (m *MockCodeRepo) Stats(ctx context.Context, tx repository.Tx, now time.Time) (*repository.StatusCounts, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, tx, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := &repository.StatusCounts{}
	for _, c := range m.store {
		counts.Total++
		switch model.StatusOf(c, now) {
		case model.StatusUsed:
			counts.Used++
		case model.StatusExpired:
			counts.Unused++
			counts.Expired++
		default:
			counts.Unused++
			counts.Active++
		}
	}
	return counts, nil
}

func (m *MockCodeRepo) DeleteExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	if m.DeleteExpiredBeforeFunc != nil {
		return m.DeleteExpiredBeforeFunc(ctx, tx, cutoff)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, c := range m.store {
		if !c.IsUsed && c.ExpiresAt.Before(cutoff) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *MockCodeRepo) DeleteUnusedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.ActivationCode, error) {
	m.mu.Lock()
	m.DeleteUnusedCalls++
	m.mu.Unlock()
	if m.DeleteUnusedBeforeFunc != nil {
		return m.DeleteUnusedBeforeFunc(ctx, tx, cutoff)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted []*model.ActivationCode
	for id, c := range m.store {
		if !c.IsUsed && c.CreatedAt.Before(cutoff) {
			cp := *c
			deleted = append(deleted, &cp)
			delete(m.store, id)
		}
	}
	return deleted, nil
}

func (m *MockCodeRepo) ListUnusedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.ActivationCode, error) {
	if m.ListUnusedBeforeFunc != nil {
		return m.ListUnusedBeforeFunc(ctx, tx, cutoff)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidates []*model.ActivationCode
	for _, c := range m.store {
		if !c.IsUsed && c.CreatedAt.Before(cutoff) {
			cp := *c
			candidates = append(candidates, &cp)
		}
	}
	return candidates, nil
}
