package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pageza/macrosync/backend/config"
	"github.com/pageza/macrosync/backend/internal/api"
	"github.com/pageza/macrosync/backend/internal/middleware"
	"github.com/pageza/macrosync/backend/internal/router"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, svc api.Nutrition, limiter *middleware.RateLimiter) *Server {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.SetupRouter(svc, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimiter:    limiter,
		AIConfigured:   cfg.HasAPIKey(),
	})

	return &Server{
		router: engine,
		http: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			// Generation calls may take up to the AI request timeout
			WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
