package model

import (
	"time"

	"github.com/LACS-Official/activation-codes-service/internal/domain"
)

// Status is the read-time state of a code. It is never persisted:
// callers derive it from the stored fields and their own clock.
type Status string

const (
	StatusUsed    Status = "used"
	StatusExpired Status = "expired"
	StatusActive  Status = "active"
)

// ExpiringSoonDays is the warning window for codes close to expiry.
const ExpiringSoonDays = 7

// StatusOf derives the display status of a code at the given instant.
// A used code is always Used, even when its expiry has long passed.
// Expiry is strict: a code whose ExpiresAt equals now is still Active.
func StatusOf(c *ActivationCode, now time.Time) Status {
	if c.IsUsed {
		return StatusUsed
	}
	if now.After(c.ExpiresAt) {
		return StatusExpired
	}
	return StatusActive
}

// Color maps a status to the badge color used by admin consoles.
func (s Status) Color() string {
	switch s {
	case StatusUsed:
		return "success"
	case StatusExpired:
		return "error"
	default:
		return "processing"
	}
}

// DaysUntilExpiration returns the whole days left before expiresAt,
// rounded up and floored at zero.
func DaysUntilExpiration(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// ExpiringSoon reports whether an unexpired code is inside the warning window.
func ExpiringSoon(expiresAt, now time.Time) bool {
	left := DaysUntilExpiration(expiresAt, now)
	return left > 0 && left <= ExpiringSoonDays
}

// ListStatus is the status filter accepted by the list endpoint.
type ListStatus string

const (
	ListAll     ListStatus = "all"
	ListUsed    ListStatus = "used"
	ListUnused  ListStatus = "unused"
	ListExpired ListStatus = "expired"
	ListActive  ListStatus = "active"
)

// ParseListStatus validates a status query value. The empty string
// means no filter and maps to ListAll.
func ParseListStatus(s string) (ListStatus, error) {
	switch ListStatus(s) {
	case "":
		return ListAll, nil
	case ListAll, ListUsed, ListUnused, ListExpired, ListActive:
		return ListStatus(s), nil
	default:
		return "", domain.ErrInvalidArgument
	}
}
