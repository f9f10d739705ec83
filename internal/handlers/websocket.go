package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"orangecat/internal/middleware"
	ws "orangecat/internal/websocket"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	secret   string
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts browser connections from origins only; requests
// without an Origin header (non-browser clients) are allowed.
func NewWebSocketHandler(hub *ws.Hub, secret string, origins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		secret: secret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, origin)
			},
		},
	}
}

// Serve handles GET /api/ws. The token comes from ?token= or, through
// OptionalAuth, the bearer header or session cookie.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		raw = middleware.AccessToken(c)
	}
	ident, err := middleware.Verify(h.secret, raw)
	if raw == "" || err != nil {
		respondError(c, http.StatusUnauthorized, TypeAuthentication, "Authentication required", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		middleware.Logger(c).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	if !h.hub.Attach(ws.NewClient(h.hub, conn, ident.UserID)) {
		middleware.Logger(c).Warn().Msg("websocket hub stopped, connection refused")
	}
}
