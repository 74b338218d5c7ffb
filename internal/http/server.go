// Package http serves the dashboard page and the JSON API over the expense
// store and profile sync.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	applog "spendly/internal/log"
	"spendly/internal/profile"
	"spendly/internal/store"
	appweb "spendly/web"
)

const defaultRemoteTimeout = 15 * time.Second

type Server struct {
	http.Server
	templates *template.Template
	store     *store.Store
	profiles  *profile.Sync
	ready     func(ctx context.Context) error
	logger    *applog.Logger
	now       func() time.Time

	remoteTimeout time.Duration
	rateLimiter   *rateLimiter
	security      securityMetrics
	startedAt     time.Time
	shutdownOnce  sync.Once
}

type Option func(*Server)

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(ctx context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// WithRemoteTimeout bounds every profile operation.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.remoteTimeout = d
		}
	}
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(applog.ComponentHTTP) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithRateLimit sets how many mutating requests one client may send per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimiter.limit = perMinute }
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, st *store.Store, profiles *profile.Sync, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        mux,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		store:         st,
		profiles:      profiles,
		ready:         func(context.Context) error { return nil },
		logger:        applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP),
		now:           time.Now,
		remoteTimeout: defaultRemoteTimeout,
		rateLimiter:   newRateLimiter(defaultRateLimit),
		startedAt:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	routes := map[string]http.HandlerFunc{
		"GET /{$}": s.handleIndex,

		"GET /api/expenses":         s.handleListExpenses,
		"POST /api/expenses":        s.handleCreateExpense,
		"GET /api/expenses/{id}":    s.handleGetExpense,
		"PATCH /api/expenses/{id}":  s.handleUpdateExpense,
		"DELETE /api/expenses/{id}": s.handleDeleteExpense,
		"POST /api/sample-data":     s.handleLoadSampleData,
		"GET /api/categories":       s.handleListCategories,
		"GET /api/wallets":          s.handleListWallets,
		"GET /api/breakdown":        s.handleBreakdown,
		"POST /api/auth/signup":     s.handleSignUp,
		"POST /api/auth/signin":     s.handleSignIn,
		"POST /api/auth/signout":    s.handleSignOut,
		"GET /api/profile":          s.handleGetProfile,
		"PATCH /api/profile":        s.handleUpdateProfile,
		"POST /api/profile/refresh": s.handleRefreshProfile,
	}
	for pattern, h := range routes {
		mux.HandleFunc(pattern, s.withSecurity(h))
	}

	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withSecurity adds request logging, rate limiting of mutating requests and
// security headers.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := applog.NewContext(r.Context(), logger)
		r = r.WithContext(ctx)

		if reason, ok := detectSuspiciousRequest(r, &s.security); ok {
			logger.WithComponent(applog.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				"reason", reason)
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, &s.security) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds()))).
				Write(w)
			return
		}

		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// remoteContext bounds a profile operation by the configured timeout.
func (s *Server) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.remoteTimeout)
}
