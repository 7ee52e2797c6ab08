package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/auth"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/ports"
	"expensetracker/internal/services"
)

// Services are the application services the handlers call.
type Services struct {
	Users        *services.UserService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	Activity     ports.ActivityStore
	// Ready is pinged by /readyz.
	Ready interface{ Ping(context.Context) error }
}

type Options struct {
	Tokens             *auth.TokenIssuer
	Logger             *applog.Logger
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	// Location decides which calendar day "today" is for the dashboard.
	Location *time.Location
	// CategoryCache, when set, reports its size on /metrics.
	CategoryCache interface{ Size() int }
}

type Server struct {
	http.Server
	svc      Services
	tokens   *auth.TokenIssuer
	logger   *applog.Logger
	location *time.Location
	now      func() time.Time

	limiter       *ratelimit.Limiter
	tracer        *trace.Middleware
	detector      *security.Detector
	categoryCache interface{ Size() int }

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:           svc,
		tokens:        opts.Tokens,
		logger:        opts.Logger.WithComponent(applog.ComponentHTTP),
		location:      opts.Location,
		now:           time.Now,
		detector:      detector,
		tracer:        trace.NewMiddleware(detector.ExtractClientIP, opts.Logger),
		categoryCache: opts.CategoryCache,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = authenticate(s.tokens)(handler)
	handler = s.flagSuspicious(handler)
	handler = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, detector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(handler)
	handler = security.CORS(opts.CORSAllowedOrigins)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Handler = handler
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /auth/token", s.handleToken)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/oauth", s.handleOAuth)

	mux.HandleFunc("GET /users/{id}", ensureLoggedIn(s.handleGetUser))
	mux.HandleFunc("PATCH /users/{id}", ensureLoggedIn(s.handleUpdateUser))
	mux.HandleFunc("DELETE /users/{id}", ensureLoggedIn(s.handleDeleteUser))
	mux.HandleFunc("GET /users/{id}/dashboard", ensureLoggedIn(s.handleDashboard))
	mux.HandleFunc("GET /users/{id}/activity", ensureLoggedIn(s.handleActivity))

	mux.HandleFunc("POST /categories", ensureLoggedIn(s.handleCreateCategory))
	mux.HandleFunc("GET /categories/users/{userId}", ensureLoggedIn(s.handleListCategories))
	mux.HandleFunc("GET /categories/{id}/users/{userId}", ensureLoggedIn(s.handleGetCategory))
	mux.HandleFunc("PATCH /categories/{id}/users/{userId}", ensureLoggedIn(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}/users/{userId}", ensureLoggedIn(s.handleDeleteCategory))

	mux.HandleFunc("POST /transactions", ensureLoggedIn(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/users/{userId}", ensureLoggedIn(s.handleListTransactions))
	mux.HandleFunc("GET /transactions/{id}/users/{userId}", ensureLoggedIn(s.handleGetTransaction))
	mux.HandleFunc("PATCH /transactions/{id}/users/{userId}", ensureLoggedIn(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}/users/{userId}", ensureLoggedIn(s.handleDeleteTransaction))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError().Write(w)
	})
}

// flagSuspicious logs requests matching known attack patterns. They are
// still served.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and the rate limiter sweep.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// fail writes the error envelope for err, logging unexpected errors.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if StatusFor(err) == http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			applog.ComponentHTTP, operationFor(r.Method),
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, ""))
	}
	ErrorFrom(err).Write(w)
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPatch:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	default:
		return applog.OpRead
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.Ready.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics reports counters in a plain name-value text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "http_requests_total %d\n", m.TotalRequests)
	fmt.Fprintf(w, "http_client_errors_total %d\n", m.ClientErrors)
	fmt.Fprintf(w, "http_server_errors_total %d\n", m.ServerErrors)
	fmt.Fprintf(w, "http_response_time_avg_ms %.3f\n", float64(m.AverageResponseTime.Microseconds())/1000)
	fmt.Fprintf(w, "rate_limit_rejected_total %d\n", s.limiter.Rejected())
	fmt.Fprintf(w, "rate_limit_active_clients %d\n", s.limiter.ActiveClients())
	fmt.Fprintf(w, "security_suspicious_requests_total %d\n", s.detector.SuspiciousRequests())
	if s.categoryCache != nil {
		fmt.Fprintf(w, "category_cache_entries %d\n", s.categoryCache.Size())
	}
}
