package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	applog "apoyos/internal/log"
)

type computeFunc func(ctx context.Context, p PeriodParams) (any, error)

// serveDashboard parses the honored parameters, answers from the response
// cache when possible and otherwise computes, encodes and stores the body.
// Only successful bodies are cached, and only when no purge happened while
// they were being computed.
func (s *Server) serveDashboard(route string, honored Param, compute computeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := applog.FromContext(ctx)

		p, err := ParsePeriodParams(r.URL.Query(), honored)
		if err != nil {
			logger.DebugContext(ctx, "Rejected dashboard request",
				applog.FieldPath, r.URL.Path,
				applog.FieldErrorType, applog.ErrorTypeValidation,
				applog.FieldError, err)
			ErrorFor(err).Write(w)
			return
		}

		var today time.Time
		if honored&ParamYear != 0 {
			today = s.now()
		}
		key := p.CacheKey(route, today)

		var gen uint64
		if s.responses != nil {
			if body, ok := s.responses.Get(key); ok {
				logger.DebugContext(ctx, "Served cached dashboard response", applog.FieldPath, r.URL.Path, applog.FieldCacheHit, true)
				NewJSONResponse().Header("X-Cache", "HIT").Raw(body).Write(w)
				return
			}
			gen = s.responses.Generation()
		}

		v, err := compute(ctx, p)
		if err != nil {
			ErrorFor(err).Write(w)
			return
		}

		body, err := json.Marshal(v)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to encode dashboard response",
				applog.FieldPath, r.URL.Path,
				applog.FieldErrorType, applog.ErrorTypeInternal,
				applog.FieldError, err)
			InternalServerError("failed to encode response").Write(w)
			return
		}
		if s.responses != nil && !s.responses.SetIfGeneration(key, body, gen) {
			logger.DebugContext(ctx, "Cache purged during computation, response not stored", applog.FieldPath, r.URL.Path)
		}
		NewJSONResponse().Header("X-Cache", "MISS").Raw(body).Write(w)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard("stats", ParamYear, func(ctx context.Context, p PeriodParams) (any, error) {
		return s.facade.Stats(ctx, p.Year)
	})(w, r)
}

func (s *Server) handleLeaders(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard("leaders", 0, func(ctx context.Context, _ PeriodParams) (any, error) {
		return s.facade.Leaders(ctx)
	})(w, r)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard("members", 0, func(ctx context.Context, _ PeriodParams) (any, error) {
		return s.facade.Members(ctx)
	})(w, r)
}

func (s *Server) handleSupport(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard("support", ParamYear, func(ctx context.Context, p PeriodParams) (any, error) {
		return s.facade.Support(ctx, p.Year)
	})(w, r)
}

func (s *Server) handleSupportByMonth(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard("by-month", ParamYear, func(ctx context.Context, p PeriodParams) (any, error) {
		return s.facade.SupportByMonth(ctx, p.Year)
	})(w, r)
}

func (s *Server) handleSupportByType(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard("by-type", ParamYear|ParamMonth, func(ctx context.Context, p PeriodParams) (any, error) {
		return s.facade.SupportByType(ctx, p.Year, p.Month)
	})(w, r)
}

func (s *Server) handleMostSupported(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard("top-most", ParamYear|ParamMonth|ParamLimit, func(ctx context.Context, p PeriodParams) (any, error) {
		return s.facade.MostSupported(ctx, p.Year, p.Month, p.Limit)
	})(w, r)
}

func (s *Server) handleLeastSupported(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard("top-least", ParamYear|ParamMonth|ParamLimit, func(ctx context.Context, p PeriodParams) (any, error) {
		return s.facade.LeastSupported(ctx, p.Year, p.Month, p.Limit)
	})(w, r)
}
