package web

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LACS-Official/activation-codes-service/internal/domain/model"
	"github.com/LACS-Official/activation-codes-service/internal/infra/metrics"
	"github.com/LACS-Official/activation-codes-service/internal/usecase"
)

type createRequest struct {
	ExpirationDays int                `json:"expirationDays"`
	ProductInfo    *model.ProductInfo `json:"productInfo,omitempty"`
	Metadata       map[string]any     `json:"metadata,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, err := s.codeUC.Create(r.Context(), usecase.CreateParams{
		ExpirationDays: req.ExpirationDays,
		ProductInfo:    req.ProductInfo,
		Metadata:       req.Metadata,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusCreated, code)
}

type verifyRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, err := s.codeUC.Verify(r.Context(), req.Code)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusOK, code)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "page must be an integer")
			return
		}
		page = n
	}
	limit := 10
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	status, err := model.ParseListStatus(q.Get("status"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "status must be one of all/used/unused/expired/active")
		return
	}

	codes, err := s.codeUC.List(r.Context(), page, limit, status)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusOK, codes)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	code, err := s.codeUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusOK, code)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.codeUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "activation code deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.codeUC.Stats(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}

type cleanupExpiredRequest struct {
	DaysOld int `json:"daysOld"`
}

func (s *Server) handleCleanupExpired(w http.ResponseWriter, r *http.Request) {
	var req cleanupExpiredRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.codeUC.CleanupExpired(r.Context(), req.DaysOld)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusOK, res)
}

type cleanupUnusedRequest struct {
	MinutesOld int `json:"minutesOld"`
}

func (s *Server) handleCleanupUnused(w http.ResponseWriter, r *http.Request) {
	var req cleanupUnusedRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.codeUC.CleanupUnused(r.Context(), req.MinutesOld)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusOK, res)
}

func (s *Server) handlePreviewUnusedCleanup(w http.ResponseWriter, r *http.Request) {
	minutesOld := 0
	if v := r.URL.Query().Get("minutesOld"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "minutesOld must be an integer")
			return
		}
		minutesOld = n
	}

	preview, err := s.codeUC.PreviewUnusedCleanup(r.Context(), minutesOld)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondData(w, http.StatusOK, preview)
}

// ===== Auth handlers =====

type loginRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := req.APIKey
	if key == "" {
		key = bearerToken(r)
	}
	if s.apiKey == "" || key != s.apiKey {
		respondError(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to mint session")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		s.auth.Clear(w)
	}
	respondData(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ===== helpers =====

// decodeOptionalBody tolerates an empty body, which several POST endpoints
// accept as "use the defaults".
func decodeOptionalBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("bearer "):])
}

// verifyBucket keys the redemption rate limit by caller address.
func verifyBucket(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return verifyKeyPrefix + host
}

const verifyKeyPrefix = "rate_limit:verify:"

func recordRequest(route, method string, status int, elapsed time.Duration) {
	metrics.ObserveHTTPRequest(route, method, status, elapsed)
}
