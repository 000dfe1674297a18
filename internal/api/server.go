// Package api exposes the prompt tool over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"art-of-prompting/internal/common/config"
	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
)

// Server wraps the echo instance and its lifecycle.
type Server struct {
	echo   *echo.Echo
	zap    *zap.Logger
	config config.ServerConfig
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerConfig sets the listen address, timeouts, CORS origins and body limit.
func WithServerConfig(cfg config.ServerConfig) ServerOption {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger for access and error logs.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.zap = l
		}
	}
}

// NewServer builds the echo instance, installs middleware and registers
// every route served by h.
func NewServer(h *Handler, opts ...ServerOption) *Server {
	s := &Server{
		echo: echo.New(),
		zap:  zap.NewNop(),
		config: config.ServerConfig{
			Host:      "",
			Port:      8000,
			BodyLimit: "2M",
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = config.GetDuration(s.config.ReadTimeout)
	e.Server.WriteTimeout = config.GetDuration(s.config.WriteTimeout)
	e.HTTPErrorHandler = apperrors.NewErrorHandler(logger.NewZapAdapter(s.zap)).HandleHTTPError

	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	if s.config.BodyLimit != "" {
		e.Use(middleware.BodyLimit(s.config.BodyLimit))
	}
	e.Use(NewRequestLogger(s.zap))
	e.Use(MetricsMiddleware())

	h.RegisterRoutes(e)
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	addr := s.config.Address()
	s.zap.Info("HTTP server listening", zap.String("addr", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := config.GetDuration(s.config.ShutdownTimeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.zap.Info("HTTP server shutting down")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
