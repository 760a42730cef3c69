package client

import "time"

// ProductInfo describes the product a code unlocks.
type ProductInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}

// ActivationCode is the canonical record as returned by the service. The
// client never caches it; every read re-fetches.
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

// CreateRequest carries the caller-controlled fields of a new code.
// ExpirationDays 0 lets the service apply its default (365 days).
type CreateRequest struct {
	ExpirationDays int            `json:"expirationDays,omitempty"`
	ProductInfo    *ProductInfo   `json:"productInfo,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ListStatus selects which lifecycle bucket a listing covers.
type ListStatus string

const (
	ListAll     ListStatus = "all"
	ListUsed    ListStatus = "used"
	ListUnused  ListStatus = "unused"
	ListExpired ListStatus = "expired"
	ListActive  ListStatus = "active"
)

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type CodeList struct {
	Codes      []*ActivationCode `json:"codes"`
	Pagination Pagination        `json:"pagination"`
}

// Stats are service-computed aggregates. Rates are percentages and are 0
// when the data set is empty.
type Stats struct {
	Total          int     `json:"total"`
	Used           int     `json:"used"`
	Unused         int     `json:"unused"`
	Expired        int     `json:"expired"`
	Active         int     `json:"active"`
	UsageRate      float64 `json:"usageRate"`
	ExpirationRate float64 `json:"expirationRate"`
}

type ExpiredCleanupResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// CodeSummary identifies a code removed by a bulk cleanup.
type CodeSummary struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UnusedCleanupResult struct {
	Message      string        `json:"message"`
	DeletedCount int           `json:"deletedCount"`
	MinutesOld   int           `json:"minutesOld"`
	CleanupTime  time.Time     `json:"cleanupTime"`
	DeletedCodes []CodeSummary `json:"deletedCodes"`
}

// PreviewCode is a cleanup candidate reported by the dry run.
type PreviewCode struct {
	ID                   string    `json:"id"`
	Code                 string    `json:"code"`
	CreatedAt            time.Time `json:"createdAt"`
	ExpiresAt            time.Time `json:"expiresAt"`
	MinutesSinceCreation int       `json:"minutesSinceCreation"`
}

type UnusedCleanupPreview struct {
	Message    string        `json:"message"`
	Count      int           `json:"count"`
	MinutesOld int           `json:"minutesOld"`
	CutoffTime time.Time     `json:"cutoffTime"`
	Codes      []PreviewCode `json:"codes"`
}
