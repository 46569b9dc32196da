package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler upgrades GET /ws?tenant=<slug> and subscribes the connection to
// that tenant; "*" follows every tenant. More tenants can be added later with
// subscribe messages. The handler holds the request until the connection
// closes.
func (h *Hub) Handler(upgrader websocket.Upgrader) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenant := strings.TrimSpace(c.QueryParam("tenant"))
		if tenant == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "tenant is required")
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// Upgrade has already written the error response.
			return nil
		}

		client := NewClient(h, conn, h.logger)
		h.Register(client)
		h.Subscribe(client, tenant)
		client.serve()
		return nil
	}
}
