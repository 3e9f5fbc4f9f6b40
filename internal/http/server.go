// Package http serves the worklife JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"worklife/internal/cache"
	"worklife/internal/core"
	"worklife/internal/log"
	"worklife/internal/middleware/ratelimit"
	"worklife/internal/middleware/security"
	"worklife/internal/middleware/trace"
	"worklife/internal/services"
)

// Services are the operations the API exposes. Exports may be nil when the
// server runs without a spreadsheet.
type Services struct {
	Work    *services.WorkService
	Habits  *services.HabitService
	Focus   *services.FocusService
	Ledger  *services.LedgerService
	Loans   *services.LoanService
	Exports *services.ExportProcessor
}

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	RequestsPerMinute int
	CacheSize         int
	CacheTTL          time.Duration
	TrustedProxies    []string
	Logger            *log.Logger
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		CacheSize:         24,
		CacheTTL:          time.Minute,
	}
}

// Server is the API server. Handler is fully wired by NewServer.
type Server struct {
	http.Server

	svc    Services
	db     Pinger
	logger *log.Logger
	now    func() time.Time

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	overviews *cache.LRUCache[core.MonthOverview]
	summaries *cache.LRUCache[core.MonthlySummary]
	caches    *cache.Manager

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer builds the server and starts its background cleanup. Call
// Shutdown to release it even if ListenAndServe is never called.
func NewServer(addr string, svc Services, db Pinger, cfg Config) (*Server, error) {
	if svc.Work == nil || svc.Habits == nil || svc.Focus == nil || svc.Ledger == nil || svc.Loans == nil {
		return nil, errors.New("http: all services except exports are required")
	}
	def := DefaultConfig()
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	detector, err := security.NewDetector(cfg.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}

	s := &Server{
		svc:       svc,
		db:        db,
		logger:    cfg.Logger,
		now:       time.Now,
		detector:  detector,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		tracer:    trace.NewMiddleware(),
		overviews: cache.NewLRUCache[core.MonthOverview](cfg.CacheSize, cfg.CacheTTL),
		summaries: cache.NewLRUCache[core.MonthlySummary](cfg.CacheSize, cfg.CacheTTL),
		caches:    cache.NewManager(),
		startedAt: time.Now(),
	}
	s.caches.Register("overview", s.overviews)
	s.caches.Register("summary", s.summaries)
	s.caches.StartCleanup(cfg.CacheTTL)

	s.Addr = addr
	s.Handler = s.middleware(s.routes())
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 15 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/work/logs", s.handleListWorkLogs)
	mux.HandleFunc("GET /api/work/logs/{date}", s.handleGetWorkLog)
	mux.HandleFunc("PUT /api/work/logs/{date}", s.handlePutWorkLog)
	mux.HandleFunc("DELETE /api/work/logs/{date}", s.handleDeleteWorkLog)
	mux.HandleFunc("GET /api/work/months/{year}/{month}/summary", s.handleMonthSummary)
	mux.HandleFunc("POST /api/work/months/{year}/{month}/projection", s.handleProjectMonth)
	mux.HandleFunc("GET /api/work/months/{year}/{month}/input", s.handleGetMonthlyInput)
	mux.HandleFunc("PATCH /api/work/months/{year}/{month}/input", s.handleAdjustMonthlyInput)
	mux.HandleFunc("DELETE /api/work/months/{year}/{month}/input", s.handleResetMonth)

	mux.HandleFunc("GET /api/habits", s.handleListHabits)
	mux.HandleFunc("POST /api/habits", s.handleCreateHabit)
	mux.HandleFunc("GET /api/habits/{id}", s.handleGetHabit)
	mux.HandleFunc("PATCH /api/habits/{id}", s.handleUpdateHabit)
	mux.HandleFunc("DELETE /api/habits/{id}", s.handleDeleteHabit)
	mux.HandleFunc("POST /api/habits/{id}/completions", s.handleCompleteHabit)
	mux.HandleFunc("GET /api/habits/{id}/completions", s.handleListCompletions)
	mux.HandleFunc("GET /api/habits/{id}/achievements", s.handleListAchievements)

	mux.HandleFunc("GET /api/focus", s.handleListFocus)
	mux.HandleFunc("POST /api/focus", s.handleStartFocus)
	mux.HandleFunc("GET /api/focus/{id}", s.handleGetFocus)
	mux.HandleFunc("POST /api/focus/{id}/stop", s.handleStopFocus)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/overview", s.handleMonthOverview)
	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring", s.handleCreateRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRecurring)

	mux.HandleFunc("GET /api/loans", s.handleListLoans)
	mux.HandleFunc("POST /api/loans", s.handleCreateLoan)
	mux.HandleFunc("GET /api/loans/{id}", s.handleGetLoan)
	mux.HandleFunc("GET /api/loans/{id}/schedule", s.handleLoanSchedule)
	mux.HandleFunc("GET /api/loans/{id}/status", s.handleLoanStatus)

	mux.HandleFunc("GET /api/exports/stats", s.handleExportStats)
	mux.HandleFunc("POST /api/exports/retry", s.handleRetryExports)

	return mux
}

// middleware wraps h, outermost first: tracing, request logging, security
// headers, suspicious request detection, then rate limiting of writes.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited,
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestLogger(s.logger, trace.FromRequest, s.detector.ExtractClientIP)(h)
	return s.tracer.Middleware(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, retry later").Write(w, r)
}

// InvalidateSummaries drops every cached monthly summary. Call it when the
// pay rates or work policy change.
func (s *Server) InvalidateSummaries() {
	s.summaries.Purge()
}

func (s *Server) invalidateSummary(year, month int) {
	s.summaries.Delete(summaryKey(MonthParams{Year: year, Month: month}))
}

func (s *Server) invalidateOverview(d core.Date) {
	s.overviews.Delete(overviewKey(MonthParams{Year: d.Year(), Month: d.Month()}))
}

func overviewKey(p MonthParams) string { return "overview:" + p.key() }
func summaryKey(p MonthParams) string  { return "summary:" + p.key() }

// Shutdown stops accepting requests and releases the limiter and caches.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
	})
	return err
}
