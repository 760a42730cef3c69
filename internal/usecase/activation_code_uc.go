package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/LACS-Official/activation-codes-service/internal/domain"
	"github.com/LACS-Official/activation-codes-service/internal/domain/model"
	"github.com/LACS-Official/activation-codes-service/internal/domain/ports/repository"
	"github.com/LACS-Official/activation-codes-service/internal/infra/metrics"
)

// Default age thresholds for the bulk cleanup operations.
const (
	DefaultCleanupDaysOld    = 30
	DefaultCleanupMinutesOld = 5
)

// CreateParams is the caller-supplied part of a new code.
type CreateParams struct {
	ExpirationDays int
	ProductInfo    *model.ProductInfo
	Metadata       map[string]any
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// CodePage is the list response payload.
type CodePage struct {
	Codes      []*model.ActivationCode `json:"codes"`
	Pagination Pagination              `json:"pagination"`
}

// CodeStats is the aggregate snapshot served by the stats endpoint.
// Rates are percentages; both are defined as 0 when Total is 0.
type CodeStats struct {
	Total          int     `json:"total"`
	Used           int     `json:"used"`
	Unused         int     `json:"unused"`
	Expired        int     `json:"expired"`
	Active         int     `json:"active"`
	UsageRate      float64 `json:"usageRate"`
	ExpirationRate float64 `json:"expirationRate"`
}

// CodeSummary is the abbreviated form returned by cleanup reports.
type CodeSummary struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExpiredCleanupResult reports a bulk delete of long-expired codes.
type ExpiredCleanupResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// UnusedCleanupResult reports a bulk delete of abandoned unused codes.
type UnusedCleanupResult struct {
	Message      string        `json:"message"`
	DeletedCount int           `json:"deletedCount"`
	MinutesOld   int           `json:"minutesOld"`
	CleanupTime  time.Time     `json:"cleanupTime"`
	DeletedCodes []CodeSummary `json:"deletedCodes"`
}

// PreviewCode is one cleanup candidate in a dry-run response.
type PreviewCode struct {
	ID                   string    `json:"id"`
	Code                 string    `json:"code"`
	CreatedAt            time.Time `json:"createdAt"`
	ExpiresAt            time.Time `json:"expiresAt"`
	MinutesSinceCreation int       `json:"minutesSinceCreation"`
}

// UnusedCleanupPreview is the read-only dry run of CleanupUnused.
type UnusedCleanupPreview struct {
	Message    string        `json:"message"`
	Count      int           `json:"count"`
	MinutesOld int           `json:"minutesOld"`
	CutoffTime time.Time     `json:"cutoffTime"`
	Codes      []PreviewCode `json:"codes"`
}

// CodeUseCase is the application service over activation codes.
type CodeUseCase interface {
	Create(ctx context.Context, params CreateParams) (*model.ActivationCode, error)
	Verify(ctx context.Context, code string) (*model.ActivationCode, error)
	List(ctx context.Context, page, limit int, status model.ListStatus) (*CodePage, error)
	Get(ctx context.Context, id string) (*model.ActivationCode, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*CodeStats, error)
	CleanupExpired(ctx context.Context, daysOld int) (*ExpiredCleanupResult, error)
	CleanupUnused(ctx context.Context, minutesOld int) (*UnusedCleanupResult, error)
	PreviewUnusedCleanup(ctx context.Context, minutesOld int) (*UnusedCleanupPreview, error)
}

// Compile-time check
var _ CodeUseCase = (*codeUC)(nil)

type codeUC struct {
	codes repository.ActivationCodeRepository
	txm   repository.TransactionManager
	now   func() time.Time
	log   *zerolog.Logger
}

// Option customizes a codeUC.
type Option func(*codeUC)

// WithClock overrides the wall clock. Status derivation and cleanup cutoffs
// always go through this clock, so tests can pin time.
func WithClock(now func() time.Time) Option {
	return func(uc *codeUC) { uc.now = now }
}

func NewCodeUseCase(codes repository.ActivationCodeRepository, txm repository.TransactionManager, logger *zerolog.Logger, opts ...Option) *codeUC {
	uc := &codeUC{codes: codes, txm: txm, now: time.Now, log: logger}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

func (uc *codeUC) Create(ctx context.Context, params CreateParams) (*model.ActivationCode, error) {
	code, err := model.NewActivationCode(uc.now(), params.ExpirationDays, params.ProductInfo, params.Metadata)
	if err != nil {
		return nil, err
	}
	if err := uc.codes.Create(ctx, repository.NoTX, code); err != nil {
		return nil, err
	}
	metrics.IncCodesCreated()
	uc.log.Info().Str("id", code.ID).Time("expires_at", code.ExpiresAt).Msg("activation code created")
	return code, nil
}

// Verify redeems a code. The unused -> used transition runs in a transaction
// and the UPDATE is guarded on is_used = FALSE, so of two concurrent attempts
// exactly one wins; the loser observes ErrCodeAlreadyUsed.
func (uc *codeUC) Verify(ctx context.Context, codeStr string) (*model.ActivationCode, error) {
	if codeStr == "" {
		return nil, domain.ErrInvalidArgument
	}

	var redeemed *model.ActivationCode
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		code, err := uc.codes.FindByCode(ctx, tx, codeStr)
		if err != nil {
			return err
		}
		if code.IsUsed {
			return domain.ErrCodeAlreadyUsed
		}
		now := uc.now()
		if now.After(code.ExpiresAt) {
			return domain.ErrCodeExpired
		}
		updated, err := uc.codes.MarkUsed(ctx, tx, code.ID, now)
		if err != nil {
			return err
		}
		if !updated {
			// Lost the race to a concurrent redemption.
			return domain.ErrCodeAlreadyUsed
		}
		code.MarkUsed(now)
		redeemed = code
		return nil
	})
	if err != nil {
		metrics.IncVerifyRejected(rejectionReason(err))
		return nil, err
	}
	metrics.IncCodesVerified()
	uc.log.Info().Str("id", redeemed.ID).Msg("activation code redeemed")
	return redeemed, nil
}

func rejectionReason(err error) string {
	switch err {
	case domain.ErrCodeAlreadyUsed:
		return "already_used"
	case domain.ErrCodeExpired:
		return "expired"
	case domain.ErrNotFound, domain.ErrCodeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func (uc *codeUC) List(ctx context.Context, page, limit int, status model.ListStatus) (*CodePage, error) {
	if page < 1 || limit < 1 || limit > 100 {
		return nil, domain.ErrInvalidArgument
	}

	offset := (page - 1) * limit
	codes, total, err := uc.codes.List(ctx, repository.NoTX, status, uc.now(), offset, limit)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []*model.ActivationCode{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &CodePage{
		Codes: codes,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

func (uc *codeUC) Get(ctx context.Context, id string) (*model.ActivationCode, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.codes.FindByID(ctx, repository.NoTX, id)
}

func (uc *codeUC) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	deleted, err := uc.codes.Delete(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrCodeNotFound
	}
	metrics.IncCodesDeleted(1, "single")
	uc.log.Info().Str("id", id).Msg("activation code deleted")
	return nil
}

func (uc *codeUC) Stats(ctx context.Context) (*CodeStats, error) {
	counts, err := uc.codes.Stats(ctx, repository.NoTX, uc.now())
	if err != nil {
		return nil, err
	}
	stats := &CodeStats{
		Total:   counts.Total,
		Used:    counts.Used,
		Unused:  counts.Unused,
		Expired: counts.Expired,
		Active:  counts.Active,
	}
	if counts.Total > 0 {
		stats.UsageRate = roundRate(float64(counts.Used) / float64(counts.Total) * 100)
		stats.ExpirationRate = roundRate(float64(counts.Expired) / float64(counts.Total) * 100)
	}
	return stats, nil
}

func roundRate(v float64) float64 {
	return math.Round(v*100) / 100
}

func (uc *codeUC) CleanupExpired(ctx context.Context, daysOld int) (*ExpiredCleanupResult, error) {
	if daysOld == 0 {
		daysOld = DefaultCleanupDaysOld
	}
	if daysOld < 0 {
		return nil, domain.ErrInvalidArgument
	}

	cutoff := uc.now().AddDate(0, 0, -daysOld)
	deleted, err := uc.codes.DeleteExpiredBefore(ctx, repository.NoTX, cutoff)
	if err != nil {
		return nil, err
	}
	metrics.IncCodesDeleted(deleted, "cleanup_expired")
	uc.log.Warn().Int("deleted", deleted).Int("days_old", daysOld).Msg("expired activation codes purged")
	return &ExpiredCleanupResult{
		Message:      fmt.Sprintf("deleted %d codes expired for more than %d days", deleted, daysOld),
		DeletedCount: deleted,
	}, nil
}

func (uc *codeUC) CleanupUnused(ctx context.Context, minutesOld int) (*UnusedCleanupResult, error) {
	if minutesOld == 0 {
		minutesOld = DefaultCleanupMinutesOld
	}
	if minutesOld < 0 {
		return nil, domain.ErrInvalidArgument
	}

	now := uc.now()
	cutoff := now.Add(-time.Duration(minutesOld) * time.Minute)
	deleted, err := uc.codes.DeleteUnusedBefore(ctx, repository.NoTX, cutoff)
	if err != nil {
		return nil, err
	}

	summaries := make([]CodeSummary, 0, len(deleted))
	for _, c := range deleted {
		summaries = append(summaries, CodeSummary{ID: c.ID, Code: c.Code, CreatedAt: c.CreatedAt, ExpiresAt: c.ExpiresAt})
	}
	metrics.IncCodesDeleted(len(deleted), "cleanup_unused")
	uc.log.Warn().Int("deleted", len(deleted)).Int("minutes_old", minutesOld).Msg("unused activation codes purged")
	return &UnusedCleanupResult{
		Message:      fmt.Sprintf("deleted %d unused codes older than %d minutes", len(deleted), minutesOld),
		DeletedCount: len(deleted),
		MinutesOld:   minutesOld,
		CleanupTime:  now,
		DeletedCodes: summaries,
	}, nil
}

// PreviewUnusedCleanup reports what CleanupUnused would delete. It issues
// only reads; stats taken before and after must match.
func (uc *codeUC) PreviewUnusedCleanup(ctx context.Context, minutesOld int) (*UnusedCleanupPreview, error) {
	if minutesOld == 0 {
		minutesOld = DefaultCleanupMinutesOld
	}
	if minutesOld < 0 {
		return nil, domain.ErrInvalidArgument
	}

	now := uc.now()
	cutoff := now.Add(-time.Duration(minutesOld) * time.Minute)
	candidates, err := uc.codes.ListUnusedBefore(ctx, repository.NoTX, cutoff)
	if err != nil {
		return nil, err
	}

	codes := make([]PreviewCode, 0, len(candidates))
	for _, c := range candidates {
		codes = append(codes, PreviewCode{
			ID:                   c.ID,
			Code:                 c.Code,
			CreatedAt:            c.CreatedAt,
			ExpiresAt:            c.ExpiresAt,
			MinutesSinceCreation: int(now.Sub(c.CreatedAt) / time.Minute),
		})
	}
	return &UnusedCleanupPreview{
		Message:    fmt.Sprintf("%d unused codes older than %d minutes would be deleted", len(codes), minutesOld),
		Count:      len(codes),
		MinutesOld: minutesOld,
		CutoffTime: cutoff,
		Codes:      codes,
	}, nil
}
