package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/budget"
	"expensetracker/internal/expenses"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
)

// Options configures a Server.
type Options struct {
	Addr string
	// RequestsPerMinute limits each client IP. Zero uses the limiter default.
	RequestsPerMinute int
	Logger            *applog.Logger
	// Now supplies the default date for new expenses.
	Now func() time.Time
}

// Server exposes a store and ledger over HTTP. The store and ledger are not
// safe for concurrent use, so every handler runs under mu.
type Server struct {
	http.Server

	mu     sync.Mutex
	store  *expenses.Store
	ledger *budget.Ledger
	logger *applog.Logger
	now    func() time.Time

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(store *expenses.Store, ledger *budget.Ledger, opts Options) *Server {
	logger := applog.OrNop(opts.Logger).WithComponent(applog.ComponentHTTP)
	detector := security.NewDetector()

	s := &Server{
		store:    store,
		ledger:   ledger,
		logger:   logger,
		now:      opts.Now,
		detector: detector,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
		tracer: trace.NewMiddleware(detector.ExtractClientIP, logger),
	}

	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/expenses", s.locked(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.locked(s.handleCreateExpense))
	mux.HandleFunc("DELETE /api/expenses", s.locked(s.handleClearExpenses))
	mux.HandleFunc("PATCH /api/expenses/{category}/{id}", s.locked(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{category}/{id}", s.locked(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/undo", s.locked(s.handleUndo))
	mux.HandleFunc("GET /api/search", s.locked(s.handleSearch))
	mux.HandleFunc("GET /api/totals", s.locked(s.handleTotals))

	mux.HandleFunc("GET /api/categories", s.locked(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.locked(s.handleCreateCategory))
	mux.HandleFunc("POST /api/categories/migrate", s.locked(s.handleMigrateCategories))
	mux.HandleFunc("DELETE /api/categories/{name}", s.locked(s.handleRemoveCategory))

	mux.HandleFunc("GET /api/budgets", s.locked(s.handleListBudgets))
	mux.HandleFunc("PUT /api/budgets/{category}", s.locked(s.handleSetBudget))
	mux.HandleFunc("DELETE /api/budgets/{category}", s.locked(s.handleRemoveBudget))
	mux.HandleFunc("GET /api/alerts", s.locked(s.handleAlerts))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, TooManyRequests)(handler)
	handler = detector.Middleware(Blocked)(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s
}

// locked serializes access to the store and ledger.
func (s *Server) locked(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next(w, r)
	}
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Run serves until ctx is cancelled, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.limiter.Stop()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("Server stopped gracefully",
		"requests", s.tracer.GetMetrics().TotalRequests,
		"rate_limited", s.limiter.GetMetrics().TotalHits,
		"blocked", s.detector.GetMetrics().SuspiciousRequests)
	return <-errCh
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
