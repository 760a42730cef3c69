package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/LACS-Official/activation-codes-service/internal/usecase"
)

// VerifyLimiter bounds redemption attempts; the redis fixed-window
// limiter satisfies it in production.
type VerifyLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	codeUC       usecase.CodeUseCase
	auth         *AuthManager
	apiKey       string
	limiter      VerifyLimiter
	verifyLimit  int
	verifyWindow time.Duration
	log          *zerolog.Logger
}

func NewServer(
	codeUC usecase.CodeUseCase,
	auth *AuthManager,
	apiKey string,
	limiter VerifyLimiter,
	verifyLimit int,
	verifyWindow time.Duration,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "web").Logger()
	return &Server{
		codeUC:       codeUC,
		auth:         auth,
		apiKey:       apiKey,
		limiter:      limiter,
		verifyLimit:  verifyLimit,
		verifyWindow: verifyWindow,
		log:          &srvLog,
	}
}

// Routes builds the full router. Verification is public (end users redeem
// codes); everything else on /api is behind admin auth.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.observe)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.With(s.rateLimitVerify).Post("/activation-codes/verify", s.handleVerify)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/activation-codes", s.handleCreate)
			r.Get("/activation-codes", s.handleList)
			r.Get("/activation-codes/stats", s.handleStats)
			r.Get("/activation-codes/cleanup-unused", s.handlePreviewUnusedCleanup)
			r.Post("/activation-codes/cleanup-unused", s.handleCleanupUnused)
			r.Post("/activation-codes/cleanup", s.handleCleanupExpired)
			r.Get("/activation-codes/{id}", s.handleGet)
			r.Delete("/activation-codes/{id}", s.handleDelete)
		})
	})
	return r
}

// requireAdmin accepts the static API key as a bearer token or a session
// JWT minted by the login endpoint.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			respondError(w, http.StatusForbidden, "admin API is disabled")
			return
		}
		if bearerToken(r) == s.apiKey {
			next.ServeHTTP(w, r)
			return
		}
		if s.auth != nil && s.auth.ValidateRequest(r) == nil {
			next.ServeHTTP(w, r)
			return
		}
		respondError(w, http.StatusUnauthorized, "authentication required")
	})
}

func (s *Server) rateLimitVerify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		allowed, err := s.limiter.Allow(r.Context(), verifyBucket(r), s.verifyLimit, s.verifyWindow)
		if err != nil {
			// Fail open: a broken limiter should not block redemptions.
			s.log.Error().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			respondError(w, http.StatusForbidden, "too many verification attempts, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observe logs each request and records the latency histogram.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		recordRequest(route, r.Method, sw.status, elapsed)
		s.log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", sw.status).
			Dur("duration", elapsed).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
