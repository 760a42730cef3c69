package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the structured failure every operation returns. Status holds
// the HTTP status code, 0 for transport failures and unparsable responses.
// Message is the human-readable explanation; Err preserves the raw error
// string from the response envelope.
type APIError struct {
	Status  int
	Message string
	Err     string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func networkError(detail string) *APIError {
	return &APIError{Status: 0, Message: "network error: " + detail, Err: "network error"}
}

// newAPIError substitutes a friendlier message per status while preserving
// the original status for programmatic branching.
func newAPIError(status int, raw string) *APIError {
	e := &APIError{Status: status, Message: raw, Err: raw}
	if e.Err == "" {
		e.Err = "unknown error"
	}

	switch status {
	case http.StatusBadRequest:
		if e.Message == "" {
			e.Message = "invalid request parameters"
		}
	case http.StatusUnauthorized:
		e.Message = "authentication failed, please log in again"
	case http.StatusForbidden:
		e.Message = "permission denied for this operation"
	case http.StatusNotFound:
		if e.Message == "" {
			e.Message = "requested resource does not exist"
		}
	case http.StatusInternalServerError:
		e.Message = "internal server error, please retry later"
	default:
		if e.Message == "" {
			e.Message = fmt.Sprintf("request failed (%d)", status)
		}
	}
	return e
}

func statusIs(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool { return statusIs(err, http.StatusNotFound) }

// IsAlreadyUsed reports whether a verification was rejected because the code
// has already been redeemed.
func IsAlreadyUsed(err error) bool { return statusIs(err, http.StatusConflict) }

// IsExpired reports whether a verification was rejected because the code is
// past its expiry.
func IsExpired(err error) bool { return statusIs(err, http.StatusGone) }
