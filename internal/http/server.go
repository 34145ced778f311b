// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

// LedgerAPI is the write surface handlers need.
type LedgerAPI interface {
	RecordExpense(ctx context.Context, e core.Expense) (int64, error)
	RecordInstallmentPlan(ctx context.Context, params ledger.PlanParams, now time.Time) (int64, []int64, error)
	DeleteExpense(ctx context.Context, id int64) error
	ReclassifyExpense(ctx context.Context, id int64, financialType core.FinancialType, categoryIDs []int64) error

	RecordIncome(ctx context.Context, in core.Income) (int64, error)
	DeleteIncome(ctx context.Context, id int64) error

	CreateService(ctx context.Context, svc core.RecurringService) (int64, error)
	ListServices(ctx context.Context) ([]core.RecurringService, error)
	SetServiceActive(ctx context.Context, id int64, active bool) error
	MarkServicePaid(ctx context.Context, serviceID int64, amount core.Money, paidOn, now time.Time) (int64, error)

	EvaluateMonthClose(ctx context.Context, now time.Time) (services.CloseState, error)
	CloseMonth(ctx context.Context, outcome ledger.CloseOutcome, now time.Time) (core.Preferences, error)
}

// DashboardAPI is the read surface handlers need.
type DashboardAPI interface {
	MonthDashboard(ctx context.Context, now time.Time) (services.Dashboard, error)
	MonthIncomes(ctx context.Context, year, month int, now time.Time) (services.MonthIncomeView, error)
}

type Server struct {
	http.Server
	ledger      LedgerAPI
	dashboard   DashboardAPI
	rateLimiter *ratelimit.Limiter
	headers     *security.Headers
	detector    *security.Detector

	// Dashboard loads fan out to six queries; a short TTL cache absorbs
	// bursts of refreshes. Writes invalidate the current month.
	dashboardCache *cache.LRUCache[services.Dashboard]
	cacheManager   *cache.Manager

	// now is swappable in tests.
	now func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledgerAPI LedgerAPI, dashboardAPI DashboardAPI) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:         ledgerAPI,
		dashboard:      dashboardAPI,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		headers:        security.NewHeaders(security.DefaultHeadersConfig()),
		detector:       security.NewDetector(),
		dashboardCache: cache.NewLRUCache[services.Dashboard](24, 2*time.Minute),
		cacheManager:   cache.NewManager(),
		now:            time.Now,
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /expenses", s.secured(s.handleCreateExpense))
	mux.HandleFunc("POST /expenses/installments", s.secured(s.handleCreateInstallmentPlan))
	mux.HandleFunc("DELETE /expenses/{id}", s.secured(s.handleDeleteExpense))
	mux.HandleFunc("PATCH /expenses/{id}/classification", s.secured(s.handleReclassifyExpense))

	mux.HandleFunc("POST /incomes", s.secured(s.handleCreateIncome))
	mux.HandleFunc("DELETE /incomes/{id}", s.secured(s.handleDeleteIncome))
	mux.HandleFunc("GET /incomes/month", s.secured(s.handleMonthIncomes))

	mux.HandleFunc("GET /services", s.secured(s.handleListServices))
	mux.HandleFunc("POST /services", s.secured(s.handleCreateService))
	mux.HandleFunc("POST /services/{id}/pay", s.secured(s.handlePayService))
	mux.HandleFunc("POST /services/{id}/active", s.secured(s.handleSetServiceActive))

	mux.HandleFunc("GET /dashboard", s.secured(s.handleDashboard))

	mux.HandleFunc("GET /month-close", s.secured(s.handleMonthCloseState))
	mux.HandleFunc("POST /month-close", s.secured(s.handleMonthClose))

	return s
}

// Shutdown stops the background cleanup goroutines along with the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// secured adds security headers, rate limiting, request IDs, and request
// logging.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := s.detector.ExtractClientIP(r)
		requestID := trace.NewRequestID()
		ctx := trace.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if s.detector.IsSuspicious(r) {
			slog.WarnContext(ctx, "Suspicious request",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.String())
		}

		if r.Method != http.MethodGet && !s.rateLimiter.Allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		s.headers.Apply(w, r)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateMonth(now time.Time) {
	s.dashboardCache.Delete(string(core.MonthKeyOf(now)))
}
