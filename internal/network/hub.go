package network

import (
	"context"
	"sync"
	"time"

	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/events"
	"github.com/samwiegames/overheat/internal/platform/logger"
	"github.com/samwiegames/overheat/internal/platform/metrics"
)

// Message types sent to clients.
const (
	MsgTypeSnapshot = "SNAPSHOT"
	MsgTypeEvent    = "EVENT"
	MsgTypeWelcome  = "WELCOME"
)

// Message is the envelope of every server to client frame.
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ActionSink accepts player inputs. *engine.Engine satisfies it.
type ActionSink interface {
	Submit(in engine.Input) bool
}

// SnapshotSource publishes the latest session state. *engine.Engine
// satisfies it.
type SnapshotSource interface {
	Snapshot() engine.Snapshot
}

// HubOptions configures buffers and limits of a Hub.
type HubOptions struct {
	Codec                Codec
	BroadcastBuffer      int
	ClientSendBuffer     int
	MaxClients           int // 0 means unlimited
	MaxMessagesPerSecond int // Per client; 0 means unlimited
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
	sink       ActionSink
	codec      Codec
	opts       HubOptions
	logger     *logger.Logger
}

// NewHub initializes a new WebSocket Hub that forwards player actions to sink.
func NewHub(sink ActionSink, opts HubOptions, log *logger.Logger) *Hub {
	if opts.Codec == nil {
		opts.Codec = jsonCodec{}
	}
	if opts.ClientSendBuffer <= 0 {
		opts.ClientSendBuffer = 64
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		broadcast:  make(chan []byte, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		sink:       sink,
		codec:      opts.Codec,
		opts:       opts,
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer h.doneOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.RecordWSConnection(1)
			h.logger.Infof("WebSocket client %s connected", client.id)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Infof("WebSocket client %s disconnected", client.id)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.RecordWSMessage(false)
				default:
					h.logger.Warn("dropping slow WebSocket client " + client.id)
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client; the caller holds h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	metrics.RecordWSConnection(-1)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Full reports whether MaxClients has been reached.
func (h *Hub) Full() bool {
	return h.opts.MaxClients > 0 && h.ClientCount() >= h.opts.MaxClients
}

// Publish encodes msg with the hub codec and queues it for every client. It
// returns false once the hub has stopped.
func (h *Hub) Publish(msg Message) bool {
	payload, err := h.codec.Marshal(msg)
	if err != nil {
		h.logger.Errorf("Failed to serialize %s message for WebSocket broadcast: %v", msg.Type, err)
		return false
	}
	select {
	case h.broadcast <- payload:
		return true
	case <-h.done:
		return false
	}
}

// BroadcastEvent sends a GameEvent to all connected clients.
func (h *Hub) BroadcastEvent(event events.GameEvent) bool {
	return h.Publish(Message{Type: MsgTypeEvent, Timestamp: event.Timestamp.UnixMilli(), Payload: event})
}

// BroadcastSnapshot sends a session snapshot to all connected clients.
func (h *Hub) BroadcastSnapshot(snap engine.Snapshot) bool {
	return h.Publish(Message{Type: MsgTypeSnapshot, Timestamp: time.Now().UnixMilli(), Payload: snap})
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes new
// events to the Hub. The Hub runs independently from the engine's tick loop
// while picking up the same events.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog, interval time.Duration) {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	go func() {
		pollInterval := time.NewTicker(interval)
		defer pollInterval.Stop()

		var lastSeq int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				for _, event := range eventLog.Since(lastSeq) {
					if !h.BroadcastEvent(event) {
						return
					}
					lastSeq = event.Seq
				}
			}
		}
	}()
}

// StartSnapshotBroadcaster spawns a goroutine that publishes the latest
// snapshot at a fixed rate while at least one client is connected.
func (h *Hub) StartSnapshotBroadcaster(ctx context.Context, source SnapshotSource, interval time.Duration) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if h.ClientCount() == 0 {
					continue
				}
				if !h.BroadcastSnapshot(source.Snapshot()) {
					return
				}
			}
		}
	}()
}
