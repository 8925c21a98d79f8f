package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"environment_controller/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSServer owns upgraded connections until they close.
type WSServer interface {
	Serve(conn *websocket.Conn, handler hub.Handler)
}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(h.opts.AllowedOrigins),
	}
}

// originChecker accepts any origin when allowed is empty. Requests without an
// Origin header come from non-browser clients and are always accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// @Summary      Control channel
// @Description  WebSocket upgrade. The server sends the full snapshot, then every outbound message; clients send protocol messages as text frames.
// @Tags         controller
// @Success      101
// @Failure      403
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err, "origin", c.GetHeader("Origin"))
		}
		return
	}
	// Serve blocks until the client disconnects and closes conn.
	h.ws.Serve(conn, h.services.Controller)
}
