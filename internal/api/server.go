// Package api serves the report backend and the analytics engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/metrics"
	"nathanbeddoewebdev/perfsight/internal/services/comparison"
)

// Server is the perfsight HTTP API.
type Server struct {
	echo    *echo.Echo
	backend backend.Manager
	svc     *comparison.Service
	log     *zap.Logger
	metrics *metrics.Recorder
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds the server and registers every route.
func New(m backend.Manager, opts ...Option) *Server {
	s := &Server{backend: m, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.svc = comparison.NewService(m, comparison.WithLogger(s.log), comparison.WithMetrics(s.metrics))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
	e.HTTPErrorHandler = s.handleError
	e.Use(s.observe, s.recoverPanics)
	s.echo = e

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")

	reports := NewReportHandler(s.log, s.backend, s.metrics)
	api.GET("/reports", reports.List)
	api.POST("/reports", reports.Create)
	api.GET("/reports/:id", reports.Get)
	api.DELETE("/reports/:id", reports.Delete)
	api.PUT("/reports/:id/tags", reports.UpdateTags)
	api.PUT("/reports/:id/title", reports.UpdateTitle)
	api.PUT("/reports/:id/folder", reports.UpdateFolder)
	api.GET("/reports/:id/processes", reports.Processes)
	api.GET("/reports/:id/custom-metrics", reports.CustomMetrics)
	api.GET("/tags", reports.Tags)

	folders := NewFolderHandler(s.log, s.backend)
	api.POST("/reports/delete", folders.DeleteReports)
	api.PUT("/reports/folder", folders.MoveReports)
	api.GET("/folders", folders.List)
	api.POST("/folders", folders.Create)
	api.DELETE("/folders", folders.Delete)
	api.GET("/folders/stats", folders.Stats)
	api.PUT("/folders/rename", folders.Rename)

	comparisons := NewComparisonHandler(s.log, s.backend, s.svc)
	api.GET("/comparisons", comparisons.List)
	api.POST("/comparisons", comparisons.Create)
	api.GET("/comparisons/:id", comparisons.Get)
	api.DELETE("/comparisons/:id", comparisons.Delete)
	api.PUT("/comparisons/:id/config", comparisons.UpdateConfig)
	api.PUT("/comparisons/:id/reports", comparisons.UpdateReports)
	api.GET("/comparisons/:id/aligned", comparisons.Aligned)
	api.GET("/comparisons/:id/drivers", comparisons.Drivers)
	api.POST("/comparisons/:id/groups", comparisons.Groups)
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", addr))
		errc <- s.echo.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("api shutting down")
	return s.echo.Shutdown(shutdownCtx)
}

// observe logs every request and records it in the metrics.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		status := c.Response().Status
		elapsed := time.Since(start)
		s.metrics.ObserveHTTP(req.Method, c.Path(), status, elapsed)
		s.log.Debug("request",
			zap.String("method", req.Method),
			zap.String("route", c.Path()),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		)
		return nil
	}
}

func (s *Server) recoverPanics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("handler panic", zap.Any("panic", r), zap.String("route", c.Path()))
				err = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
		}()
		return next(c)
	}
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}
