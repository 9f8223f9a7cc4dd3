// Package server assembles the echo application: middleware, route groups
// and the http listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/middleware"
	accuracyroutes "github.com/Ramsey-B/clover/pkg/routes/accuracy"
	configroutes "github.com/Ramsey-B/clover/pkg/routes/dedupconfig"
	detectroutes "github.com/Ramsey-B/clover/pkg/routes/detect"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	reviewroutes "github.com/Ramsey-B/clover/pkg/routes/reviewitem"
)

type Server struct {
	cfg     *config.Config
	logger  ectologger.Logger
	echo    *echo.Echo
	health  *health.Checker
	httpSrv *http.Server
}

// NewServer builds the echo application and wires every route group.
// containerID names the dependency container the handlers resolve from.
func NewServer(cfg *config.Config, logger ectologger.Logger, checker *health.Checker, containerID string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.DIContainer(containerID))
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	api := e.Group("/api/v1")
	detectroutes.Register(api.Group("/detect"))
	reviewroutes.Register(api.Group("/review-items"))
	configroutes.Register(api.Group("/dedup-configs"))
	accuracyroutes.Register(api.Group("/accuracy"))
	checker.RegisterRoutes(e)

	return &Server{
		cfg:    cfg,
		logger: logger,
		echo:   e,
		health: checker,
	}
}

// Echo exposes the underlying router, used by tests to drive requests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start launches the listener and flips the readiness probe. Listen errors
// after a clean start are logged rather than returned; startup ordering only
// cares that the listener came up.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		ReadTimeout:       time.Duration(s.cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
	}

	go func() {
		if err := s.echo.StartServer(s.httpSrv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("http server exited")
		}
	}()

	s.health.SetReady(true)
	s.logger.WithField("port", s.cfg.Port).Infof("http server listening on :%d", s.cfg.Port)
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.health.SetReady(false)
	return s.echo.Shutdown(ctx)
}
