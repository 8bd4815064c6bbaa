// Package http wires the web UI: routing, session checks, rate limiting
// and template rendering.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"finbook/internal/auth"
	"finbook/internal/cache"
	"finbook/internal/core"
	"finbook/internal/log"
	"finbook/internal/market"
	appweb "finbook/web"
)

// DataStore is the read/write surface the handlers need from SQLite.
// Transaction writes go through TransactionWriter instead so the export
// pipeline sees them.
type DataStore interface {
	CreateUser(ctx context.Context, u core.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)

	ListAccounts(ctx context.Context, userID int64) ([]core.Account, error)
	GetAccount(ctx context.Context, userID, id int64) (core.Account, error)
	CreateAccount(ctx context.Context, a core.Account) (int64, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, userID, id int64) error
	ListCurrencies(ctx context.Context) ([]core.Currency, error)

	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	SearchTransactions(ctx context.Context, userID int64, query string, limit int) ([]core.Transaction, error)

	ListCategories(ctx context.Context) ([]core.Category, error)
	ListCategoriesByType(ctx context.Context, t core.CategoryType) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (int64, error)

	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (int64, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, userID, id int64) error

	DashboardSummary(ctx context.Context, userID int64) (core.DashboardSummary, error)
	CategoryTotals(ctx context.Context, userID int64, t core.CategoryType) ([]core.CategoryTotal, error)
	PeriodStats(ctx context.Context, userID int64, days int) (core.PeriodStats, error)
}

// TransactionWriter is implemented by services.TransactionService.
type TransactionWriter interface {
	CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, userID int64, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error
}

// MarketReader serves the crypto widget. Nil disables it.
type MarketReader interface {
	TopByVolume(ctx context.Context, limit int) ([]market.Ticker, error)
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger

	store    DataStore
	txs      TransactionWriter
	sessions *auth.Manager
	market   MarketReader

	rateLimiter *rateLimiter

	// Dashboard summaries are cached per user for a short window and
	// invalidated on any write by that user.
	summaryCache *cache.LRUCache[core.DashboardSummary]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, store DataStore, txs TransactionWriter, sessions *auth.Manager, mkt MarketReader) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger:           log.ForComponent(log.ComponentHTTP),
		store:            store,
		txs:              txs,
		sessions:         sessions,
		market:           mkt,
		rateLimiter:      newRateLimiter(),
		summaryCache:     cache.NewLRUCache[core.DashboardSummary](500, time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /login", s.wrap(s.handleLoginPage))
	mux.HandleFunc("POST /login", s.wrap(s.handleLogin))
	mux.HandleFunc("GET /register", s.wrap(s.handleRegisterPage))
	mux.HandleFunc("POST /register", s.wrap(s.handleRegister))
	mux.HandleFunc("POST /logout", s.wrap(s.requireUser(s.handleLogout)))

	mux.HandleFunc("GET /{$}", s.wrap(s.requireUser(s.handleDashboard)))

	mux.HandleFunc("GET /accounts", s.wrap(s.requireUser(s.handleAccountList)))
	mux.HandleFunc("GET /accounts/new", s.wrap(s.requireUser(s.handleAccountForm)))
	mux.HandleFunc("POST /accounts", s.wrap(s.requireUser(s.handleAccountCreate)))
	mux.HandleFunc("GET /accounts/{id}/edit", s.wrap(s.requireUser(s.handleAccountForm)))
	mux.HandleFunc("POST /accounts/{id}", s.wrap(s.requireUser(s.handleAccountUpdate)))
	mux.HandleFunc("POST /accounts/{id}/delete", s.wrap(s.requireUser(s.handleAccountDelete)))

	mux.HandleFunc("GET /transactions", s.wrap(s.requireUser(s.handleTransactionList)))
	mux.HandleFunc("GET /transactions/new", s.wrap(s.requireUser(s.handleTransactionForm)))
	mux.HandleFunc("POST /transactions", s.wrap(s.requireUser(s.handleTransactionCreate)))
	mux.HandleFunc("GET /transactions/{id}/edit", s.wrap(s.requireUser(s.handleTransactionForm)))
	mux.HandleFunc("POST /transactions/{id}", s.wrap(s.requireUser(s.handleTransactionUpdate)))
	mux.HandleFunc("POST /transactions/{id}/delete", s.wrap(s.requireUser(s.handleTransactionDelete)))

	mux.HandleFunc("GET /categories", s.wrap(s.requireUser(s.handleCategoryList)))
	mux.HandleFunc("POST /categories", s.wrap(s.requireUser(s.handleCategoryCreate)))

	mux.HandleFunc("GET /budgets", s.wrap(s.requireUser(s.handleBudgetList)))
	mux.HandleFunc("GET /budgets/new", s.wrap(s.requireUser(s.handleBudgetForm)))
	mux.HandleFunc("POST /budgets", s.wrap(s.requireUser(s.handleBudgetCreate)))
	mux.HandleFunc("GET /budgets/{id}/edit", s.wrap(s.requireUser(s.handleBudgetForm)))
	mux.HandleFunc("POST /budgets/{id}", s.wrap(s.requireUser(s.handleBudgetUpdate)))
	mux.HandleFunc("POST /budgets/{id}/delete", s.wrap(s.requireUser(s.handleBudgetDelete)))

	mux.HandleFunc("GET /search", s.wrap(s.requireUser(s.handleSearch)))
	mux.HandleFunc("GET /analytics", s.wrap(s.requireUser(s.handleAnalytics)))

	mux.HandleFunc("GET /api/crypto", s.wrap(s.requireUser(s.handleAPICrypto)))
	mux.HandleFunc("GET /api/statistics", s.wrap(s.requireUser(s.handleAPIStatistics)))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				s.logger.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) summaryKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// invalidateSummary drops the cached dashboard after any write that
// changes what it shows.
func (s *Server) invalidateSummary(userID int64) {
	s.summaryCache.Delete(s.summaryKey(userID))
}

func (s *Server) getSummary(ctx context.Context, userID int64) (core.DashboardSummary, error) {
	key := s.summaryKey(userID)
	if data, found := s.summaryCache.Get(key); found {
		return data, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	data, err := s.store.DashboardSummary(cctx, userID)
	if err != nil {
		return core.DashboardSummary{}, err
	}

	s.summaryCache.Set(key, data)
	return data, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
