package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
)

func TestHandler_StreamsTenantOutcomes(t *testing.T) {
	// Arrange
	hub := startHub(t)
	e := echo.New()
	e.GET("/ws", hub.Handler(NewSecureUpgrader(nil, nil)))
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?tenant=jazzduo"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ack WSMessage
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, MessageTypeSubscribed, ack.Type)

	// Act
	hub.Observe(pipeline.Result{RunID: "run-1", Outcome: pipeline.OutcomeCreated, TenantSlug: "jazzduo", BookingID: 4})

	// Assert
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeOutcome, msg.Type)
	require.NotNil(t, msg.Result)
	assert.Equal(t, "run-1", msg.Result.RunID)
	assert.Equal(t, uint(4), msg.Result.BookingID)
}

func TestHandler_RequiresTenant(t *testing.T) {
	hub := startHub(t)
	e := echo.New()
	e.GET("/ws", hub.Handler(NewSecureUpgrader(nil, nil)))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
