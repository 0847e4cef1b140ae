// Package http serves the church records over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "igreja/internal/log"
	"igreja/internal/middleware/ratelimit"
	"igreja/internal/middleware/security"
	"igreja/internal/middleware/trace"
	"igreja/internal/services"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	registry *services.RegistryService
	ledger   *services.LedgerService
	reports  *services.ReportService
	health   Pinger

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, registry *services.RegistryService, ledger *services.LedgerService, reports *services.ReportService, health Pinger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	detector := security.NewDetector()

	s := &Server{
		registry: registry,
		ledger:   ledger,
		reports:  reports,
		health:   health,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, applog.NewStructuredLogger(logger)),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, ratelimit.WritesOnly, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
	})(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	h = applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /organization", withRole(s.handleGetOrganization))
	mux.HandleFunc("PUT /organization", withRole(s.handlePutOrganization))
	mux.HandleFunc("DELETE /organization", withRole(s.handleDeleteOrganization))

	mux.HandleFunc("GET /members", withRole(s.handleListMembers))
	mux.HandleFunc("POST /members", withRole(s.handleCreateMember))
	mux.HandleFunc("PUT /members", withRole(s.handleBulkUpdateMembers))
	mux.HandleFunc("GET /members/birthdays", withRole(s.handleBirthdays))
	mux.HandleFunc("GET /members/{id}", withRole(s.handleGetMember))
	mux.HandleFunc("PUT /members/{id}", withRole(s.handleUpdateMember))
	mux.HandleFunc("DELETE /members/{id}", withRole(s.handleDeleteMember))
	mux.HandleFunc("GET /members/{id}/photo", withRole(s.handleGetPhoto))
	mux.HandleFunc("PUT /members/{id}/photo", withRole(s.handlePutPhoto))
	mux.HandleFunc("DELETE /members/{id}/photo", withRole(s.handleDeletePhoto))

	mux.HandleFunc("POST /ledger/entries", withRole(s.handleRecordContribution))
	mux.HandleFunc("GET /ledger/entries", withRole(s.handleListEntries))
	mux.HandleFunc("DELETE /ledger/entries/{id}", withRole(s.handleDeleteEntry))

	mux.HandleFunc("GET /reports/annual/{year}", withRole(s.handleAnnualPanel))
	mux.HandleFunc("GET /exports/annual/{year}", withRole(s.handleExportPanel))
	mux.HandleFunc("GET /exports/members", withRole(s.handleExportMembers))
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
