// Package httpserve exposes the analyzer over HTTP: the JSON API the
// dashboard consumes, the SSE job stream and the embedded static UI.
package httpserve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"maparr/internal/analysis"
	"maparr/internal/dockerx"
	"maparr/internal/jobs"
	"maparr/internal/store"
)

// shutdownGrace bounds how long in-flight requests may finish.
const shutdownGrace = 10 * time.Second

// Snapshotter is the slice of the Docker client the handlers need.
type Snapshotter interface {
	Status(ctx context.Context) dockerx.Status
	Snapshot(ctx context.Context) (analysis.Snapshot, error)
}

// Server bundles the echo instance with its collaborators.
type Server struct {
	echo    *echo.Echo
	port    int
	version string

	docker  Snapshotter
	store   *store.Store
	jobs    *jobs.Manager
	started time.Time
}

// New wires a ready-to-run server.
func New(port int, version string, docker Snapshotter, st *store.Store, jm *jobs.Manager) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{
		echo:    e,
		port:    port,
		version: version,
		docker:  docker,
		store:   st,
		jobs:    jm,
		started: time.Now(),
	}
	s.registerRoutes()
	return s
}

// Handler exposes the routing tree, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is canceled, then drains gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		log.Info("dashboard listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Debug("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start).Round(time.Millisecond),
			)
			return err
		}
	}
}
