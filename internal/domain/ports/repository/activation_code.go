package repository

import (
	"context"
	"time"

	"github.com/LACS-Official/activation-codes-service/internal/domain/model"
)

// StatusCounts is the aggregate breakdown used by the stats endpoint.
// Expired/Active are derived server-side from the `now` passed to Stats,
// never from a stored column.
type StatusCounts struct {
	Total   int
	Used    int
	Unused  int
	Expired int
	Active  int
}

// ActivationCodeRepository is the port for persisting activation codes.
type ActivationCodeRepository interface {
	// Create inserts a new code.
	Create(ctx context.Context, tx Tx, code *model.ActivationCode) error
	// FindByCode finds a code by its secret string, used or not.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	// FindByID finds a code by its identifier.
	FindByID(ctx context.Context, tx Tx, id string) (*model.ActivationCode, error)
	// MarkUsed records the unused -> used transition. It must only affect
	// rows that are still unused and report whether a row was updated, so
	// concurrent redemptions cannot both succeed.
	MarkUsed(ctx context.Context, tx Tx, id string, usedAt time.Time) (bool, error)
	// List returns one page of codes for the given status filter plus the
	// total row count for that filter. Status derivation uses `now`.
	List(ctx context.Context, tx Tx, status model.ListStatus, now time.Time, offset, limit int) ([]*model.ActivationCode, int, error)
	// Delete removes a single code, reporting whether it existed.
	Delete(ctx context.Context, tx Tx, id string) (bool, error)
	// Stats returns the aggregate status breakdown at `now`.
	Stats(ctx context.Context, tx Tx, now time.Time) (*StatusCounts, error)
	// DeleteExpiredBefore removes unredeemed codes whose expiry lies before cutoff.
	DeleteExpiredBefore(ctx context.Context, tx Tx, cutoff time.Time) (int, error)
	// DeleteUnusedBefore removes unredeemed codes created before cutoff and
	// returns the deleted rows for the cleanup report.
	DeleteUnusedBefore(ctx context.Context, tx Tx, cutoff time.Time) ([]*model.ActivationCode, error)
	// ListUnusedBefore returns the codes DeleteUnusedBefore would remove,
	// without mutating anything.
	ListUnusedBefore(ctx context.Context, tx Tx, cutoff time.Time) ([]*model.ActivationCode, error)
}
