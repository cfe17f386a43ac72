package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"budgetboard/internal/cache"
	"budgetboard/internal/dashboard"
	applog "budgetboard/internal/log"
	"budgetboard/internal/middleware/ratelimit"
	"budgetboard/internal/middleware/security"
	"budgetboard/internal/middleware/trace"
	appweb "budgetboard/web"
)

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Addr               string
	SessionTTL         time.Duration
	SessionMax         int
	RateLimitPerMinute int
	// Ready reports whether the budget API answers. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Server is the dashboard web server. Each browser session owns one
// dashboard view; handlers drive it through the controller and render it.
type Server struct {
	http.Server
	templates  *template.Template
	controller *dashboard.Controller
	currency   string
	sessions   *SessionStore
	caches     *cache.Manager
	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	ready      func(ctx context.Context) error
	logger     *applog.Logger
	started    time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(cfg ServerConfig, controller *dashboard.Controller, logger *applog.Logger) (*Server, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	resolver, err := security.NewClientIPResolver()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		controller: controller,
		currency:   controller.Refresher().Format().CurrencySymbol(),
		sessions:   NewSessionStore(cfg.SessionMax, cfg.SessionTTL, logger),
		caches:     cache.NewManager(logger),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		tracer:     trace.NewMiddleware(logger, resolver.ClientIP),
		ready:      cfg.Ready,
		logger:     logger,
		started:    time.Now(),
	}

	s.caches.Register("sessions", s.sessions)
	s.caches.StartCleanup(10 * time.Minute)

	// Templates that fail to parse leave the server up; pages answer 500.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /ui/income", s.handleSaveIncome)
	mux.HandleFunc("POST /ui/expense", s.handleAddExpense)
	mux.HandleFunc("DELETE /ui/expense/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /ui/expense/{id}", s.handleDeleteExpense)

	limited := s.limiter.Middleware(resolver.ClientIP, s.onRateLimited)(mux)
	headers := security.NewHeadersMiddleware(security.DashboardHeadersConfig()).Middleware(limited)
	s.Handler = s.tracer.Middleware(headers)

	return s, nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Too many requests. Please wait a moment and try again.").
		Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and the budget API.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "budget_api": "ok"}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["budget_api"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, r, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
		"sessions":  s.sessions.Size(),
	})
}

// handleMetrics writes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()

	fmt.Fprintf(w, "# TYPE http_requests_total counter\nhttp_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\nhttp_server_errors_total %d\n", traceMetrics.ServerErrors)
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\nrate_limit_hits_total %d\n", limitMetrics.TotalHits)
	fmt.Fprintf(w, "# TYPE rate_limit_clients gauge\nrate_limit_clients %d\n", limitMetrics.ClientCount)
	fmt.Fprintf(w, "# TYPE dashboard_sessions gauge\ndashboard_sessions %d\n", s.sessions.Size())
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\nuptime_seconds %.0f\n", time.Since(s.started).Seconds())
}
