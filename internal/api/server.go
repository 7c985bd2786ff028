package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/dispatcher"
	"github.com/seoscout/marketintel/internal/intel"
	"github.com/seoscout/marketintel/internal/metrics"
)

// Server wires HTTP handlers to the dispatcher and the report store.
type Server struct {
	router     chi.Router
	store      intel.ReportStore
	dispatcher *dispatcher.Dispatcher
	idGen      intel.IDGenerator
	clock      intel.Clock
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	store intel.ReportStore,
	disp *dispatcher.Dispatcher,
	idGen intel.IDGenerator,
	clock intel.Clock,
	logger *zap.Logger,
) *Server {
	s := &Server{
		store:      store,
		dispatcher: disp,
		idGen:      idGen,
		clock:      clock,
		logger:     logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(metrics.Middleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/audits", func(r chi.Router) {
			r.Post("/", s.submitAudit)
			r.Route("/{audit_id}", func(r chi.Router) {
				r.Get("/", s.getAudit)
				r.Get("/report", s.getReport)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) submitAudit(w http.ResponseWriter, r *http.Request) {
	var req intel.AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Domain = intel.NormalizeDomain(req.Domain)
	req.Service = strings.TrimSpace(strings.ToLower(req.Service))
	if req.Domain == "" {
		s.writeError(w, http.StatusBadRequest, "domain is required")
		return
	}
	if req.Service == "" {
		s.writeError(w, http.StatusBadRequest, "service is required")
		return
	}

	auditID, err := s.enqueueAudit(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"audit_id": auditID,
		"status":   string(intel.AuditStatusQueued),
	})
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "audit_id")
	audit, err := s.store.GetAudit(r.Context(), auditID)
	if err != nil {
		if errors.Is(err, intel.ErrAuditNotFound) {
			s.writeError(w, http.StatusNotFound, "audit not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to fetch audit")
		return
	}
	s.writeJSON(w, http.StatusOK, audit)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "audit_id")
	report, err := s.store.GetReport(r.Context(), auditID)
	if err != nil {
		if errors.Is(err, intel.ErrReportNotFound) || errors.Is(err, intel.ErrAuditNotFound) {
			s.writeError(w, http.StatusNotFound, "report not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to fetch report")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) enqueueAudit(ctx context.Context, req intel.AuditRequest) (string, error) {
	auditID, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate audit id: %w", err)
	}
	now := s.clock.Now()
	audit := intel.Audit{
		ID:        auditID,
		Status:    intel.AuditStatusQueued,
		Submitted: now,
		Request:   req,
	}
	if err := s.store.CreateAudit(ctx, audit); err != nil {
		return "", fmt.Errorf("create audit: %w", err)
	}
	queueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	item := intel.QueueItem{
		AuditID:   auditID,
		Request:   req,
		Attempt:   1,
		Submitted: now.Unix(),
	}
	if err := s.dispatcher.Enqueue(queueCtx, item); err != nil {
		return "", fmt.Errorf("enqueue audit: %w", err)
	}
	return auditID, nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
