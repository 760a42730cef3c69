package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/LACS-Official/activation-codes-service/internal/domain"
	"github.com/LACS-Official/activation-codes-service/internal/domain/model"
	"github.com/LACS-Official/activation-codes-service/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

const codeColumns = `id, code, created_at, expires_at, is_used, used_at, product_info, metadata`

func (r *activationCodeRepo) Create(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	const q = `
INSERT INTO activation_codes (id, code, created_at, expires_at, is_used, used_at, product_info, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	product, err := marshalNullable(code.ProductInfo)
	if err != nil {
		return err
	}
	meta, err := marshalNullable(code.Metadata)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.CreatedAt, code.ExpiresAt, code.IsUsed, code.UsedAt, product, meta,
	)
	return err
}

func (r *activationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM activation_codes WHERE code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanCode(row)
}

func (r *activationCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM activation_codes WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCode(row)
}

// MarkUsed is guarded on is_used = FALSE so the unused -> used transition
// happens at most once even under concurrent redemption attempts.
func (r *activationCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, id string, usedAt time.Time) (bool, error) {
	const q = `
UPDATE activation_codes
   SET is_used = TRUE, used_at = $2
 WHERE id = $1 AND is_used = FALSE;
`
	tag, err := execSQL(ctx, r.pool, tx, q, id, usedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// statusPredicate maps a list filter to SQL over the stored fields plus the
// caller's clock. Expired/active are derived here, never read from a column.
// The second result reports whether the predicate consumes the $1 clock
// parameter so callers can number the remaining placeholders.
func statusPredicate(status model.ListStatus) (string, bool) {
	switch status {
	case model.ListUsed:
		return `is_used`, false
	case model.ListUnused:
		return `NOT is_used`, false
	case model.ListExpired:
		return `NOT is_used AND expires_at < $1`, true
	case model.ListActive:
		return `NOT is_used AND expires_at >= $1`, true
	default:
		return `TRUE`, false
	}
}

func (r *activationCodeRepo) List(ctx context.Context, tx repository.Tx, status model.ListStatus, now time.Time, offset, limit int) ([]*model.ActivationCode, int, error) {
	pred, usesNow := statusPredicate(status)

	countArgs := []interface{}{}
	listArgs := []interface{}{}
	limitPh, offsetPh := "$1", "$2"
	if usesNow {
		countArgs = append(countArgs, now)
		listArgs = append(listArgs, now)
		limitPh, offsetPh = "$2", "$3"
	}
	listArgs = append(listArgs, limit, offset)

	countQ := `SELECT COUNT(*) FROM activation_codes WHERE ` + pred + `;`
	listQ := `SELECT ` + codeColumns + ` FROM activation_codes WHERE ` + pred +
		` ORDER BY created_at DESC LIMIT ` + limitPh + ` OFFSET ` + offsetPh + `;`

	row, err := pickRow(ctx, r.pool, tx, countQ, countArgs...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	rows, err := pickRows(ctx, r.pool, tx, listQ, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	codes := make([]*model.ActivationCode, 0, limit)
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, 0, err
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

func (r *activationCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `DELETE FROM activation_codes WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *activationCodeRepo) Stats(ctx context.Context, tx repository.Tx, now time.Time) (*repository.StatusCounts, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE is_used),
       COUNT(*) FILTER (WHERE NOT is_used),
       COUNT(*) FILTER (WHERE NOT is_used AND expires_at < $1),
       COUNT(*) FILTER (WHERE NOT is_used AND expires_at >= $1)
  FROM activation_codes;
`
	row, err := pickRow(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, err
	}
	var c repository.StatusCounts
	if err := row.Scan(&c.Total, &c.Used, &c.Unused, &c.Expired, &c.Active); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

// DeleteExpiredBefore keeps redeemed codes: they serve as the redemption
// audit trail and never surface as "expired" anyway.
func (r *activationCodeRepo) DeleteExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	const q = `DELETE FROM activation_codes WHERE NOT is_used AND expires_at < $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *activationCodeRepo) DeleteUnusedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.ActivationCode, error) {
	const q = `
DELETE FROM activation_codes
 WHERE NOT is_used AND created_at < $1
RETURNING id, code, created_at, expires_at;
`
	rows, err := pickRows(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCodeSummaries(rows)
}

func (r *activationCodeRepo) ListUnusedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.ActivationCode, error) {
	const q = `
SELECT id, code, created_at, expires_at
  FROM activation_codes
 WHERE NOT is_used AND created_at < $1
 ORDER BY created_at;
`
	rows, err := pickRows(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCodeSummaries(rows)
}

func scanCode(row pgx.Row) (*model.ActivationCode, error) {
	var (
		c       model.ActivationCode
		product []byte
		meta    []byte
	)
	err := row.Scan(&c.ID, &c.Code, &c.CreatedAt, &c.ExpiresAt, &c.IsUsed, &c.UsedAt, &product, &meta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(product) > 0 {
		c.ProductInfo = &model.ProductInfo{}
		if err := json.Unmarshal(product, c.ProductInfo); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &c, nil
}

func scanCodeSummaries(rows pgx.Rows) ([]*model.ActivationCode, error) {
	var codes []*model.ActivationCode
	for rows.Next() {
		var c model.ActivationCode
		if err := rows.Scan(&c.ID, &c.Code, &c.CreatedAt, &c.ExpiresAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		codes = append(codes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *model.ProductInfo:
		if x == nil {
			return nil, nil
		}
	case map[string]any:
		if x == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
