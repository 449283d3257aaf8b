package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"apoyos/internal/cache"
	"apoyos/internal/dashboard"
	applog "apoyos/internal/log"
	"apoyos/internal/middleware/ratelimit"
	"apoyos/internal/middleware/security"
	"apoyos/internal/middleware/trace"
)

// ServerConfig wires the dependencies of the dashboard API. Responses and
// Limiter are optional. Now should be the clock the Facade's engine uses;
// it defaults to time.Now.
type ServerConfig struct {
	Addr       string
	Now        func() time.Time
	Facade     *dashboard.Facade
	Logger     *applog.Logger
	Responses  *cache.LRUCache[[]byte]
	Limiter    *ratelimit.Limiter
	IPResolver *security.IPResolver
	Headers    security.HeadersConfig
}

type Server struct {
	http.Server
	facade    *dashboard.Facade
	logger    *applog.Logger
	responses *cache.LRUCache[[]byte]
	limiter   *ratelimit.Limiter
	ips       *security.IPResolver
	tracer    *trace.Middleware
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.Nop()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	ips := cfg.IPResolver
	if ips == nil {
		ips, _ = security.NewIPResolver()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		facade:    cfg.Facade,
		logger:    logger,
		responses: cfg.Responses,
		limiter:   cfg.Limiter,
		ips:       ips,
		tracer:    trace.NewMiddleware(logger, ips.ClientIP),
		now:       now,
	}
	s.Handler = s.routes(cfg.Headers)
	return s
}

func (s *Server) routes(headers security.HeadersConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware, middleware.Recoverer, middleware.CleanPath)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(security.NewHeadersMiddleware(headers).Middleware)
		if s.limiter != nil {
			limited := s.logger.WithComponent(applog.ComponentRateLimit)
			r.Use(s.limiter.Middleware(s.ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
				limited.WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, s.ips.ClientIP(r),
					applog.FieldPath, r.URL.Path)
				TooManyRequestsError().Write(w)
			}))
		}

		r.Get("/stats", s.handleStats)
		r.Get("/stats/cabezas-circulo", s.handleLeaders)
		r.Get("/stats/integrantes-circulo", s.handleMembers)
		r.Get("/stats/apoyos", s.handleSupport)
		r.Get("/charts/apoyos-por-mes", s.handleSupportByMonth)
		r.Get("/charts/apoyos-por-tipo", s.handleSupportByType)
		r.Get("/tables/top-colonias-mas-apoyos", s.handleMostSupported)
		r.Get("/tables/top-colonias-menos-apoyos", s.handleLeastSupported)
	})

	return r
}

// Shutdown stops the rate limiter and drains the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type healthResponse struct {
	Status       string       `json:"status"`
	Requests     int64        `json:"requests"`
	ServerErrors int64        `json:"serverErrors"`
	Cache        *cache.Stats `json:"cache,omitempty"`
	RateLimited  int64        `json:"rateLimited"`
	SpoofedIPs   int64        `json:"spoofedForwardedFor"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	resp := healthResponse{
		Status:       "ok",
		Requests:     m.TotalRequests,
		ServerErrors: m.ServerErrors,
		SpoofedIPs:   s.ips.SpoofAttempts(),
	}
	if s.responses != nil {
		st := s.responses.Stats()
		resp.Cache = &st
	}
	if s.limiter != nil {
		resp.RateLimited = s.limiter.GetMetrics().TotalHits
	}
	NewJSONResponse().Header("Cache-Control", "no-store").Encode(resp).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.Ready(r.Context()); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		ServiceUnavailableError("store unavailable").Write(w)
		return
	}
	NewJSONResponse().Header("Cache-Control", "no-store").Encode(map[string]string{"status": "ready"}).Write(w)
}
