package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
)

const defaultOrigin = "http://localhost:3000"

// NewSecureUpgrader creates a WebSocket upgrader that only accepts the
// configured dashboard origins. Rejections are recorded on security, which
// may be nil.
func NewSecureUpgrader(origins []string, security *logger.SecurityLogger) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" && o != "*" {
			allowed[o] = true
		}
	}
	if len(allowed) == 0 {
		allowed[defaultOrigin] = true
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Allow same-origin requests (empty Origin)
			if origin == "" || allowed[origin] {
				return true
			}

			security.InvalidOrigin(r.RemoteAddr, origin)
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
