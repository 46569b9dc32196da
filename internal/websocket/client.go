package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = pongTimeout * 9 / 10

	// Dashboards only ever send subscription changes.
	maxInboundFrame = 512
	sendBuffer      = 64
)

// Client is one dashboard connection. Outcome frames are queued on send and
// written by writeLoop; inbound frames change the client's subscriptions.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

// NewClient creates a Client for conn. A nil logger discards output.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

// serve runs the connection until the peer leaves or the hub stops. The
// read side runs on the calling goroutine.
func (c *Client) serve() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	}
	c.conn.SetReadLimit(maxInboundFrame)
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("dashboard connection dropped", slog.Any("error", err))
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		var err error
		select {
		case frame, open := <-c.send:
			if !open {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			err = c.write(websocket.TextMessage, frame)
		case <-ping.C:
			err = c.write(websocket.PingMessage, nil)
		case <-c.hub.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
		if err != nil {
			c.logger.Debug("dashboard write failed", slog.Any("error", err))
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(kind, data)
}

func (c *Client) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		if msg.Tenant == "" {
			c.sendError("tenant is required")
			return
		}
		if msg.Type == MessageTypeSubscribe {
			c.hub.Subscribe(c, msg.Tenant)
		} else {
			c.hub.Unsubscribe(c, msg.Tenant)
		}
	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) sendError(reason string) {
	c.queue(WSMessage{Type: MessageTypeError, Error: reason})
}

// queue never blocks; a slow client loses frames rather than stalling the hub.
func (c *Client) queue(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
