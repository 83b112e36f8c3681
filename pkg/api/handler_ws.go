package api

import (
	"crypto/hmac"
	"net/http"
	"os"
	"strings"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// wsHandler upgrades HTTP connections to WebSocket and delegates to
// ConnectionManager. Authentication is via a bearer token carried as the
// second value of the Sec-WebSocket-Protocol header (spec.md §6), since
// browsers cannot attach custom headers to a WebSocket upgrade request.
func (s *Server) wsHandler(c *echo.Context) error {
	if !s.validBearerSubprotocol(c.Request()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid bearer subprotocol")
	}

	if s.connManager == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "websocket not available")
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		Subprotocols:   []string{wsSubprotocol},
		OriginPatterns: s.cfg.AllowedWSOrigins,
	})
	if err != nil {
		return err
	}

	// Register connection with the ConnectionManager.
	// HandleConnection blocks until the WebSocket closes.
	s.connManager.HandleConnection(c.Request().Context(), conn)
	s.telemetry.SetActiveConnections(s.connManager.ActiveConnections())
	return nil
}

const wsSubprotocol = "bearer"

// validBearerSubprotocol checks the "bearer, <token>" Sec-WebSocket-Protocol
// pair against the configured token. A Server with no WSAuth config (or no
// token set in its env var) rejects every connection rather than silently
// running open.
func (s *Server) validBearerSubprotocol(r *http.Request) bool {
	raw := r.Header.Get("Sec-WebSocket-Protocol")
	if raw == "" {
		return false
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return false
	}
	if strings.TrimSpace(parts[0]) != wsSubprotocol {
		return false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return false
	}

	if s.cfg == nil || s.cfg.WSAuth == nil || s.cfg.WSAuth.TokenEnv == "" {
		return false
	}
	expected := os.Getenv(s.cfg.WSAuth.TokenEnv)
	if expected == "" {
		return false
	}
	return hmac.Equal([]byte(token), []byte(expected))
}
