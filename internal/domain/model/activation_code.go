package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/LACS-Official/activation-codes-service/internal/domain"
)

// Expiration bounds for newly created codes, in days.
const (
	MinExpirationDays     = 1
	MaxExpirationDays     = 3650
	DefaultExpirationDays = 365
)

// ProductInfo is descriptive metadata attached to a code at creation.
// Immutable afterwards; there is no update endpoint.
type ProductInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}

// ActivationCode is a single-use code that can be redeemed exactly once
// before its expiry. "Expired" is never stored; it is derived from
// ExpiresAt at read time (see StatusOf).
type ActivationCode struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	CreatedAt   time.Time      `json:"createdAt"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	IsUsed      bool           `json:"isUsed"`
	UsedAt      *time.Time     `json:"usedAt,omitempty"`
	ProductInfo *ProductInfo   `json:"productInfo,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewActivationCode builds an unredeemed code expiring expirationDays from now.
// expirationDays == 0 selects the default; out-of-range values are rejected.
func NewActivationCode(now time.Time, expirationDays int, product *ProductInfo, metadata map[string]any) (*ActivationCode, error) {
	if expirationDays == 0 {
		expirationDays = DefaultExpirationDays
	}
	if expirationDays < MinExpirationDays || expirationDays > MaxExpirationDays {
		return nil, domain.ErrInvalidArgument
	}

	code, err := generateCode(now)
	if err != nil {
		return nil, err
	}

	return &ActivationCode{
		ID:          uuid.NewString(),
		Code:        code,
		CreatedAt:   now,
		ExpiresAt:   now.AddDate(0, 0, expirationDays),
		ProductInfo: product,
		Metadata:    metadata,
	}, nil
}

// MarkUsed flips the code to its terminal redeemed state. The unused -> used
// transition happens at most once; callers must check IsUsed first.
func (c *ActivationCode) MarkUsed(now time.Time) {
	c.IsUsed = true
	c.UsedAt = &now
}

// generateCode produces the wire format {unix-ms}-{random}-{uuid}.
// The random segment uses crypto/rand so a code is not guessable from
// its creation timestamp.
func generateCode(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), hex.EncodeToString(buf), uuid.NewString()), nil
}
