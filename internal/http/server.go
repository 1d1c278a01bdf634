package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"smartsave/internal/auth"
	"smartsave/internal/core"
	"smartsave/internal/log"
	"smartsave/internal/middleware/ratelimit"
	"smartsave/internal/middleware/security"
	"smartsave/internal/middleware/trace"
	"smartsave/internal/services"
)

const readinessTimeout = 2 * time.Second

// Dependencies are the services the handlers call. Ready, when set, backs
// /readyz.
type Dependencies struct {
	Auth         *auth.Service
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Insights     *services.InsightsService
	Ready        func(ctx context.Context) error
	Logger       *log.Logger

	RateLimitPerMinute int
	SecureCookies      bool
}

type Server struct {
	http.Server
	deps     Dependencies
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		deps:     deps,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/user", s.authed(s.handleCurrentUser))
	mux.HandleFunc("PUT /api/user/whatsapp", s.authed(s.handleUpdateWhatsApp))

	mux.HandleFunc("GET /api/transactions", s.authed(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/latest", s.authed(s.handleLatestTransactions))
	mux.HandleFunc("POST /api/transactions", s.authed(s.handleCreateTransaction))
	mux.HandleFunc("POST /api/csv/upload", s.authed(s.handleUploadCSV))

	mux.HandleFunc("GET /api/budgets", s.authed(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.authed(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/alerts", s.authed(s.handleBudgetAlerts))
	mux.HandleFunc("PUT /api/budgets/{id}", s.authed(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.authed(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/savings-goals", s.authed(s.handleListGoals))
	mux.HandleFunc("POST /api/savings-goals", s.authed(s.handleCreateGoal))
	mux.HandleFunc("GET /api/savings-goals/{id}", s.authed(s.handleGetGoal))
	mux.HandleFunc("PUT /api/savings-goals/{id}", s.authed(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/savings-goals/{id}", s.authed(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/savings-goals/{id}/deposits", s.authed(s.handleDeposit))
	mux.HandleFunc("GET /api/deposits", s.authed(s.handleListDeposits))

	mux.HandleFunc("GET /api/insights/recommendations", s.authed(s.handleRecommendations))
	mux.HandleFunc("GET /api/insights/savings", s.authed(s.handleSavings))
	mux.HandleFunc("GET /api/insights/summary", s.authed(s.handleSummary))
	mux.HandleFunc("GET /api/insights/overview", s.authed(s.handleOverview))
	mux.HandleFunc("POST /api/assistant", s.authed(s.handleAssistant))

	mux.HandleFunc("GET /api/export/transactions.csv", s.authed(s.handleExportTransactions))
	mux.HandleFunc("GET /api/export/goals.csv", s.authed(s.handleExportGoals))
	mux.HandleFunc("GET /api/export/recommendations.csv", s.authed(s.handleExportRecommendations))
	mux.HandleFunc("GET /api/export/report.txt", s.authed(s.handleExportReport))

	mux.HandleFunc("POST /api/reset", s.authed(s.handleReset))
	mux.HandleFunc("POST /api/cache/sync", s.authed(s.handleSync))

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	})(handler)
	handler = s.detector.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = log.RequestLogging(deps.Logger, trace.FromRequest, s.detector.ClientIP)(handler)
	handler = trace.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// authed resolves the session cookie, or a bearer token, to a user.
func (s *Server) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			UnauthorizedError("authentication required").Write(w)
			return
		}
		user, err := s.deps.Auth.Authenticate(r.Context(), token)
		if err != nil {
			respondError(w, r, err)
			return
		}
		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, user.ID))
		next(w, r.WithContext(ctx), user)
	}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(auth.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
