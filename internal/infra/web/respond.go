package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LACS-Official/activation-codes-service/internal/domain"
)

// envelope is the wire format shared by every endpoint:
// {"success": bool, "data"?: T, "error"?: string}.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// respondDomainError translates domain sentinels to HTTP statuses. The status
// code carries the primary signal; the error string is a readable detail.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCodeExpired):
		respondError(w, http.StatusGone, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
