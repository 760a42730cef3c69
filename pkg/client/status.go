package client

import "time"

// Status is the derived lifecycle state of a code. It is never stored;
// callers recompute it from the record and their own clock.
type Status string

const (
	StatusUsed    Status = "used"
	StatusExpired Status = "expired"
	StatusActive  Status = "active"
)

// ExpiringSoonDays is the warning threshold for codes close to expiry.
const ExpiringSoonDays = 7

// StatusOf derives the display status from (isUsed, expiresAt, now).
// Used wins over Expired; a code whose expiry equals now is still Active.
func StatusOf(code *ActivationCode, now time.Time) Status {
	if code.IsUsed {
		return StatusUsed
	}
	if now.After(code.ExpiresAt) {
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

// DaysUntilExpiration is the remaining lifetime in whole days, rounded up
// and never negative.
func DaysUntilExpiration(expiresAt, now time.Time) int {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// ExpiringSoon reports whether an unexpired code is within the warning window.
func ExpiringSoon(expiresAt, now time.Time) bool {
	d := DaysUntilExpiration(expiresAt, now)
	return d > 0 && d <= ExpiringSoonDays
}
