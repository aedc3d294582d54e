// internal/handlers/websocket/websocket.go
package websocket

import (
	"errors"
	"net/http"
	"time"

	"assistance-gateway/internal/middleware"
	"assistance-gateway/internal/pkg/identity"
	"assistance-gateway/internal/pkg/response"
	ws "assistance-gateway/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; an empty list
// or "*" accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(set) == 0 || origin == "" || set[origin]
	}
}

// HandleConnection authenticates the caller and upgrades to a websocket.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := extractToken(c)
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing authentication token", nil)
		return
	}

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("websocket authentication failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		status := http.StatusUnauthorized
		if !errors.Is(err, ws.ErrUnauthorized) {
			status = http.StatusBadGateway
		}
		response.Error(c, status, "authentication failed", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, auth)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	h.logger.Info("websocket client authenticated",
		zap.String("owner", auth.Owner),
		zap.String("client_id", client.ID()),
	)

	go client.WritePump()
	go client.ReadPump()
}

// extractToken reads the token from the query (browsers cannot set headers
// on a websocket handshake) or the Authorization header.
func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return identity.BearerToken(c.GetHeader("Authorization"))
}

// GetStats returns websocket connection statistics, including the caller's
// own open connections.
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	owner, _ := middleware.GetOwner(c)
	response.Success(c, http.StatusOK, "websocket stats", gin.H{
		"total_connections": h.hub.TotalClients(),
		"owner_connections": h.hub.GetConnectedClients(owner),
		"timestamp":         time.Now(),
	})
}
