package network

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// PlayerAction represents an incoming command from a client.
type PlayerAction struct {
	Type    string `json:"type"`               // "CLOSE_POPUP", "CATCH", "CONSUME", "RESTART"
	PopupID int64  `json:"popup_id,omitempty"` // CLOSE_POPUP only
	Powerup string `json:"powerup,omitempty"`  // CONSUME only
}

// Input converts the action into an engine input, reporting false for
// unknown types and malformed arguments.
func (a PlayerAction) Input(actorID string) (engine.Input, bool) {
	in := engine.Input{Kind: engine.InputKind(a.Type), ActorID: actorID}
	switch in.Kind {
	case engine.InputClosePopup:
		if a.PopupID <= 0 {
			return in, false
		}
		in.PopupID = popup.ID(a.PopupID)
	case engine.InputConsume:
		kind, err := powerup.ParseKind(a.Powerup)
		if err != nil {
			return in, false
		}
		in.Powerup = kind
	case engine.InputCatch, engine.InputRestart:
	default:
		return in, false
	}
	return in, true
}

// Client is a single WebSocket connection attached to a Hub.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	windowStart time.Time
	windowCount int
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.opts.ClientSendBuffer),
	}
}

// ID identifies the client in logs and as the input actor.
func (c *Client) ID() string { return c.id }

// Register adds the client to the hub.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

// ReadPump pumps actions from the websocket connection to the hub's sink.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		frameType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.RecordWSError()
				c.hub.logger.Errorf("WebSocket read error from %s: %v", c.id, err)
			}
			break
		}
		metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := decodeAction(frameType, message, &action); err != nil {
			c.hub.logger.Warn("Failed to parse PlayerAction from WebSocket. err: " + err.Error())
			continue
		}

		c.handlePlayerAction(action, time.Now())
	}
}

func (c *Client) handlePlayerAction(action PlayerAction, now time.Time) {
	if !c.allow(now) {
		c.hub.logger.Warn("Rate limit exceeded for client " + c.id)
		return
	}

	in, ok := action.Input(c.id)
	if !ok {
		c.hub.logger.Warn("Invalid PlayerAction " + action.Type + " from " + c.id)
		return
	}
	if !c.hub.sink.Submit(in) {
		c.hub.logger.Warn("Input queue full, dropped " + action.Type + " from " + c.id)
		return
	}
	c.hub.logger.Event("PLAYER_ACTION_"+action.Type, c.id, "queued")
}

// allow applies a fixed one-second window of MaxMessagesPerSecond actions.
func (c *Client) allow(now time.Time) bool {
	limit := c.hub.opts.MaxMessagesPerSecond
	if limit <= 0 {
		return true
	}
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	if c.windowCount >= limit {
		return false
	}
	c.windowCount++
	return true
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	frameType := c.hub.codec.FrameType()
	batched := c.hub.codec.Batched()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(frameType)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			if batched {
				n := len(c.send)
				for i := 0; i < n; i++ {
					w.Write([]byte{'\n'})
					w.Write(<-c.send)
				}
			}

			if err := w.Close(); err != nil {
				metrics.RecordWSError()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Browser clients are served from other origins in development
	},
}

// ServeWS upgrades the request and attaches a new client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.Full() {
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.RecordWSError()
		h.logger.Error("Failed to upgrade websocket connection: " + err.Error())
		return
	}

	client := NewClient(h, conn)
	// Queued before registration, while the hub cannot close send yet.
	if welcome, err := h.codec.Marshal(Message{
		Type:      MsgTypeWelcome,
		Timestamp: time.Now().UnixMilli(),
		Payload:   map[string]string{"client_id": client.id, "format": h.codec.Name()},
	}); err == nil {
		select {
		case client.send <- welcome:
		default:
		}
	}
	if !client.Register() {
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
