package http

import (
	"context"
	"net/http"
	"time"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
)

// handleRoot greets API clients.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	OK(map[string]string{"message": "Welcome to Spenny API"}).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.store == nil {
		checks["entity_store"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", spennylog.FieldError, err)
		checks["entity_store"] = "unavailable"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["entity_store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"limited_total":  s.rateLimiter.GetMetrics().TotalHits,
	}
	checks["security"] = map[string]any{
		"suspicious_requests": s.securityDetector.GetMetrics().SuspiciousRequests,
	}
	checks["requests_total"] = s.traceMiddleware.GetMetrics().TotalRequests

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in core.Registration
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tok, err := s.svc.Users.Register(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	Created(tok).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in core.Credentials
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tok, err := s.svc.Users.Login(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(tok).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	s.writeUser(w, r, userID, userID)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.writeUser(w, r, currentUser(r), r.PathValue("id"))
}

func (s *Server) writeUser(w http.ResponseWriter, r *http.Request, callerID, id string) {
	u, err := s.svc.Users.Get(r.Context(), callerID, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(u).Write(w)
}
