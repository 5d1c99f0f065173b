package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	spennylog "spenny/internal/log"
	"spenny/internal/middleware/ratelimit"
	"spenny/internal/middleware/security"
	"spenny/internal/middleware/trace"
	"spenny/internal/services"
)

// Services bundles the operations the API exposes.
type Services struct {
	Users        *services.UserService
	Budgets      *services.BudgetService
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
}

// Pinger reports whether the entity store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	CORSOrigins        []string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	Logger             *slog.Logger
}

type Server struct {
	http.Server
	svc      Services
	verifier TokenVerifier
	store    Pinger
	logger   *slog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, svc Services, verifier TokenVerifier, store Pinger) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	detector := security.NewDetector()
	s := &Server{
		svc:              svc,
		verifier:         verifier,
		store:            store,
		logger:           opts.Logger.With(spennylog.FieldComponent, spennylog.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
		started:          time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = http.TimeoutHandler(handler, opts.RequestTimeout, `{"error":{"code":"UNAVAILABLE","message":"request timed out"}}`)
	handler = cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID, "WWW-Authenticate", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(opts.Logger)(handler)
	handler = spennylog.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = spennylog.Middleware(spennylog.FromSlog(opts.Logger, spennylog.ComponentHTTP))(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:           opts.Addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   opts.RequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /api/auth/register", limited(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/auth/login", limited(http.HandlerFunc(s.handleLogin)))

	mux.HandleFunc("GET /api/users/me", s.requireUser(s.handleMe))
	mux.HandleFunc("GET /api/users/{id}", s.requireUser(s.handleGetUser))

	mux.HandleFunc("POST /api/budgets", s.requireUser(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.requireUser(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/{id}", s.requireUser(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.requireUser(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.requireUser(s.handleDeleteBudget))

	mux.HandleFunc("POST /api/accounts", s.requireUser(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts", s.requireUser(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", s.requireUser(s.handleGetAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.requireUser(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.requireUser(s.handleDeleteAccount))

	mux.HandleFunc("POST /api/categories", s.requireUser(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", s.requireUser(s.handleListCategories))
	mux.HandleFunc("GET /api/categories/{id}", s.requireUser(s.handleGetCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.requireUser(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.requireUser(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/transactions", s.requireUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.requireUser(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.requireUser(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.requireUser(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireUser(s.handleDeleteTransaction))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		spennylog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		spennylog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
