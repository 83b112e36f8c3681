// Package api provides the HTTP/WebSocket surface for meetingscribe:
// the inbound recording webhook (C12), real-time event streaming (C9), and
// an unauthenticated health endpoint. See spec.md §6.
package api

import (
	"context"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/database"
	"github.com/codeready-toolchain/meetingscribe/pkg/events"
	"github.com/codeready-toolchain/meetingscribe/pkg/intake"
	"github.com/codeready-toolchain/meetingscribe/pkg/telemetry"
)

// Server is the HTTP API server.
type Server struct {
	echo        *echo.Echo
	httpServer  *http.Server
	cfg         *config.Config
	dbClient    *database.Client
	intake      *intake.Handler
	connManager *events.ConnectionManager
	telemetry   *telemetry.Recorder
}

// NewServer creates a new API server with Echo v5, wiring the inbound
// webhook receiver and the WebSocket connection manager. rec may be nil,
// in which case /metrics answers 503 rather than panicking.
func NewServer(
	cfg *config.Config,
	dbClient *database.Client,
	intakeHandler *intake.Handler,
	connManager *events.ConnectionManager,
	rec *telemetry.Recorder,
) *Server {
	e := echo.New()

	s := &Server{
		echo:        e,
		cfg:         cfg,
		dbClient:    dbClient,
		intake:      intakeHandler,
		connManager: connManager,
		telemetry:   rec,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	// Server-wide body size limit: generously above the largest legitimate
	// webhook delivery, rejecting multi-MB payloads before they reach
	// handler code.
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/metrics", func(c *echo.Context) error {
		s.telemetry.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})

	v1 := s.echo.Group("/v1")
	v1.POST("/webhook/daily", func(c *echo.Context) error {
		s.intake.ServeHTTP(c.Response(), c.Request())
		return nil
	})

	// Both WS routes share one handler: the client selects what to
	// subscribe to (a transcript channel or its user-scoped counterpart)
	// with subscribe/unsubscribe messages sent after the upgrade; the :id
	// path parameter is not read (spec.md §6).
	v1.GET("/transcripts/:id/ws", s.wsHandler)
	v1.GET("/events", s.wsHandler)
}

// Start starts the HTTP server on the given address (non-blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(s.echo, "meetingscribe-api"),
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: otelhttp.NewHandler(s.echo, "meetingscribe-api")}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
