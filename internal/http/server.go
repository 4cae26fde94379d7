package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"lifeledger/internal/auth"
	"lifeledger/internal/backend"
	"lifeledger/internal/log"
	"lifeledger/internal/middleware/ratelimit"
	"lifeledger/internal/middleware/security"
	"lifeledger/internal/middleware/trace"
)

// Options configures NewServer.
type Options struct {
	Addr               string
	Backend            backend.Backend
	Issuer             *auth.Issuer
	Logger             *log.Logger
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	// Now is the clock used for default year/month. Defaults to time.Now.
	Now func() time.Time
}

// Server is the JSON API. It embeds http.Server so callers use
// ListenAndServe and Shutdown directly.
type Server struct {
	http.Server
	ledger         backend.Backend
	issuer         *auth.Issuer
	limiter        *ratelimit.Limiter
	detector       *security.Detector
	requestTimeout time.Duration
	now            func() time.Time
	events         *log.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	s := &Server{
		ledger:         opts.Backend,
		issuer:         opts.Issuer,
		limiter:        ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:       security.NewDetector(),
		requestTimeout: opts.RequestTimeout,
		now:            opts.Now,
		events:         log.NewStructuredLogger(log.ComponentLedger),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	tracer := trace.NewMiddleware(s.detector.ClientIP)
	limit := s.limiter.Middleware(s.detector.ClientIP, ratelimit.MutatingMethods, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)
	handler = log.RequestIDMiddleware(handler)
	handler = log.Middleware(opts.Logger.WithComponent(log.ComponentHTTP))(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       opts.RequestTimeout,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/transactions", s.requireUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.requireUser(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.requireUser(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.requireUser(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireUser(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/dashboard/stats", s.requireUser(s.handleDashboardStats))
	mux.HandleFunc("GET /api/dashboard/monthly-comparison", s.requireUser(s.handleMonthlyComparison))

	mux.HandleFunc("GET /api/admin/users", s.requireAdmin(s.handleListUsers))
	mux.HandleFunc("POST /api/admin/users", s.requireAdmin(s.handleCreateUser))
	mux.HandleFunc("DELETE /api/admin/users/{id}", s.requireAdmin(s.handleDeleteUser))
	mux.HandleFunc("GET /api/admin/users/most-active", s.requireAdmin(s.handleMostActiveUsers))
	mux.HandleFunc("GET /api/admin/transactions/total", s.requireAdmin(s.handleTotalTransactions))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Route not found").Write(w)
	})
}

// requestContext bounds backend work for one request.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
