// Package server provides the HTTP API for submitting and browsing interview experiences.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/server/ratelimit"
	"github.com/jonathan/interview-insights/internal/service"
	"github.com/jonathan/interview-insights/internal/store"
	"github.com/jonathan/interview-insights/internal/types"
)

// ExperienceService is what the handlers need from service.Service.
type ExperienceService interface {
	Submit(ctx context.Context, sub *types.RawSubmission) (service.SubmitResult, error)
	SubmitStream(ctx context.Context, sub *types.RawSubmission, cb pipeline.ProgressCallback) (service.SubmitResult, error)
	List(ctx context.Context) ([]types.ProcessedExperience, error)
	Get(ctx context.Context, id string) (types.ProcessedExperience, error)
	Filter(ctx context.Context, q store.Query) ([]types.ProcessedExperience, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// Routes served by the API.
const (
	RouteSubmit       = "/submit-experience"
	RouteSubmitStream = "/submit-experience/stream"
	RouteExperiences  = "/experiences"
	RouteFilter       = "/experiences/filter"
	RouteStats        = "/experiences/stats"
	RouteExperience   = "/experiences/{id}"
	RouteHealth       = "/health"
)

// maxBodyBytes bounds submission payloads.
const maxBodyBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	svc        ExperienceService
	limiter    *ratelimit.Limiter
	logger     *zap.Logger
	router     *chi.Mux
	httpServer *http.Server
}

// New builds the router. A nil limiter disables rate limiting.
func New(svc ExperienceService, limiter *ratelimit.Limiter, logger *zap.Logger, addr string) *Server {
	if limiter == nil {
		limiter = ratelimit.NewLimiter(nil)
	}

	s := &Server{
		svc:     svc,
		limiter: limiter,
		logger:  logger,
		router:  chi.NewRouter(),
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(s.withLogging)
	r.Use(s.withRecovery)
	r.Use(withCORS)

	r.Get(RouteHealth, s.handleHealth)
	r.With(s.withRateLimit(http.MethodPost, RouteSubmit)).Post(RouteSubmit, s.handleSubmit)
	r.With(s.withRateLimit(http.MethodPost, RouteSubmit)).Post(RouteSubmitStream, s.handleSubmitStream)
	r.Get(RouteExperiences, s.withReadLimit(RouteExperiences, s.handleList))
	r.Get(RouteFilter, s.withReadLimit(RouteFilter, s.handleFilter))
	r.Get(RouteStats, s.withReadLimit(RouteStats, s.handleStats))
	r.Get(RouteExperience, s.withReadLimit(RouteExperience, s.handleGet))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.logger.Info("Server starting", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	defer s.limiter.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("Error encoding JSON response", zap.Error(err))
	}
}
