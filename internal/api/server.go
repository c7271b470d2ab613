// Package api serves the read models over HTTP.
//
// Every response is an envelope {success, data, count?}. List endpoints take
// skip and limit query parameters; data is always an array.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/roach88/rollix/internal/config"
	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/store"
)

// Reader is the slice of the store the query surface needs.
type Reader interface {
	Find(ctx context.Context, key record.Key) (record.Object, error)
	FindPage(ctx context.Context, q store.Query) (store.Page, error)
	LatestCommit(ctx context.Context) (store.Commit, error)
}

// Server is the HTTP query surface.
type Server struct {
	echo   *echo.Echo
	reader Reader
	limits config.QueryConfig
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLimits sets pagination bounds. Defaults to config.Default().Query.
func WithLimits(q config.QueryConfig) Option {
	return func(s *Server) { s.limits = q }
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a server over r with all routes registered.
func New(r Reader, opts ...Option) *Server {
	s := &Server{
		echo:   echo.New(),
		reader: r,
		limits: config.Default().Query,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				s.logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			s.logger.Debug("request", attrs...)
			return nil
		},
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	g := s.echo.Group("/data")
	g.GET("/nugget/:nid", s.getNugget)
	g.GET("/nuggets", s.listNuggets)
	g.GET("/markets", s.listMarkets)
	g.GET("/bid/:pid1/:pid2", s.listBids)
	g.GET("/sell/:pid1/:pid2", s.listSales)
	g.GET("/positions/:pid1/:pid2", s.listPositions)
	g.GET("/object/:index", s.getObject)
	g.GET("/checkpoint", s.getCheckpoint)
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown. Returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("query surface listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleError renders any error as a failure envelope.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		msg = "not found"
	default:
		s.logger.Error("query failed", "path", c.Path(), "error", err)
	}

	if err := c.JSON(status, envelope{Success: false, Data: []any{}, Error: msg}); err != nil {
		s.logger.Error("write error response", "error", err)
	}
}
