// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the message contract and a few REST helpers over
// HTTP for the browser extension and local tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pdiddy/paper-library/internal/library"
	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/internal/messaging"
	"github.com/pdiddy/paper-library/internal/telemetry"
	"github.com/pdiddy/paper-library/pkg/types"
)

const (
	DefaultAddr            = "127.0.0.1:8787"
	DefaultMaxBodyBytes    = 32 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultAllowedOrigins admits any Chrome extension.
var DefaultAllowedOrigins = []string{"chrome-extension://*"}

// Server is the HTTP transport.
type Server struct {
	engine  *gin.Engine
	handler *messaging.Handler
	store   *library.Store
	cfg     types.ServerConfig
	log     *logger.Logger
}

// New builds the gin engine and registers the routes.
func New(cfg types.ServerConfig, handler *messaging.Handler, store *library.Store, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		handler: handler,
		store:   store,
		cfg:     cfg,
		log:     log.With("component", "server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(telemetry.ServiceName))
	engine.Use(s.requestLogger())
	engine.Use(maxBodySize(cfg.MaxBodyBytes))
	engine.Use(corsMiddleware(cfg.AllowedOrigins))
	s.registerRoutes(engine)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		s.log.Info("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:           origins,
		AllowWildcard:          true,
		AllowBrowserExtensions: true,
		AllowMethods:           []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:           []string{"Content-Type", "X-Requested-With"},
		ExposeHeaders:          []string{"Content-Disposition"},
		MaxAge:                 12 * time.Hour,
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

func maxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
