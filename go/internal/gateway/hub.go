// Package gateway exposes the show's event stream over WebSocket. Clients
// subscribe to named channels, acknowledge delivered events, and push viewer
// input back through the same connection.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/events"
	"github.com/mcdev12/triviacast/go/internal/quiz"
	"github.com/mcdev12/triviacast/go/internal/ratelimit"
)

// AckSink receives delivery acknowledgements from clients.
type AckSink interface {
	HandleAck(eventID string, success bool, errMsg string)
}

// InputSink receives viewer submissions from clients.
type InputSink interface {
	HandleViewerInput(entityID string, answer quiz.Answer) (ratelimit.Decision, error)
}

// Hub manages WebSocket connections and fans events out to the connections
// subscribed to each channel.
type Hub struct {
	// Connection pools organized by channel
	channelConns map[events.Channel]map[*Connection]bool
	conns        map[*Connection]bool
	mu           sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	acks  AckSink
	input InputSink

	broadcastCh chan *events.Event
}

// Connection represents a WebSocket connection to a client.
type Connection struct {
	ID       string
	ClientID string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewHub creates a hub. The ack and input sinks may be nil, in which case the
// corresponding client messages are logged and dropped.
func NewHub(config ConnectionConfig, acks AckSink, input InputSink) *Hub {
	return &Hub{
		channelConns: make(map[events.Channel]map[*Connection]bool),
		conns:        make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		acks:        acks,
		input:       input,
		broadcastCh: make(chan *events.Event, 1000),
	}
}

// Run processes broadcast messages until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("gateway hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway hub shutting down")
			return
		case ev := <-h.broadcastCh:
			h.handleBroadcast(ev)
		}
	}
}

// Deliver enqueues an event for fan-out. It implements broadcast.Transport;
// a full queue drops the event rather than blocking the show loop.
func (h *Hub) Deliver(ev *events.Event) error {
	select {
	case h.broadcastCh <- ev:
		return nil
	default:
		log.Warn().Str("channel", string(ev.Channel)).Msg("broadcast queue full, dropping event")
		return fmt.Errorf("broadcast queue full")
	}
}

// SubscriberCount reports how many connections are subscribed to a channel.
func (h *Hub) SubscriberCount(ch events.Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channelConns[ch])
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection.
func (h *Hub) UpgradeConnection(w http.ResponseWriter, r *http.Request, clientID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Hub:         h,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	h.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("client_id", clientID).
		Msg("WebSocket connection established")

	return nil
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(h.conns)).
		Msg("connection registered")
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.conns[conn]; !exists {
		return
	}
	delete(h.conns, conn)
	close(conn.Send)

	for ch, pool := range h.channelConns {
		if pool[conn] {
			delete(pool, conn)
			if len(pool) == 0 {
				delete(h.channelConns, ch)
			}
		}
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("client_id", conn.ClientID).
		Msg("connection unregistered")
}

// subscribe adds the connection to the given channel pools.
func (h *Hub) subscribe(conn *Connection, channels []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.conns[conn] {
		return
	}
	for _, name := range channels {
		ch := events.Channel(name)
		if h.channelConns[ch] == nil {
			h.channelConns[ch] = make(map[*Connection]bool)
		}
		h.channelConns[ch][conn] = true
	}

	log.Debug().
		Str("connection_id", conn.ID).
		Strs("channels", channels).
		Msg("connection subscribed")
}

// handleBroadcast fans one event out to every subscriber of its channel.
func (h *Hub) handleBroadcast(ev *events.Event) {
	h.mu.RLock()
	pool, exists := h.channelConns[ev.Channel]
	if !exists {
		h.mu.RUnlock()
		return
	}

	targets := make([]*Connection, 0, len(pool))
	for conn := range pool {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Str("client_id", conn.ClientID).
				Msg("connection send buffer full, closing connection")
			h.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", ev.Type).
		Str("channel", string(ev.Channel)).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// ConnectionCount reports the total number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Hub.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	}
}

// handleClientMessage routes one inbound client message.
func (c *Connection) handleClientMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Msg("ignoring malformed client message")
		return
	}

	switch msg.Type {
	case clientMsgSubscribe:
		c.Hub.subscribe(c, msg.Channels)

	case clientMsgAck:
		if c.Hub.acks == nil || msg.EventID == "" {
			return
		}
		ok := msg.OK == nil || *msg.OK
		c.Hub.acks.HandleAck(msg.EventID, ok, msg.Error)

	case clientMsgInput:
		c.handleInput(msg)

	default:
		log.Debug().
			Str("connection_id", c.ID).
			Str("type", msg.Type).
			Msg("ignoring unknown client message type")
	}
}

func (c *Connection) handleInput(msg clientMessage) {
	if c.Hub.input == nil {
		return
	}

	entityID := msg.EntityID
	if entityID == "" {
		entityID = c.ClientID
	}
	answer := quiz.Answer{Option: msg.Option, Text: msg.Text, Value: msg.Value}

	decision, err := c.Hub.input.HandleViewerInput(entityID, answer)
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Str("entity_id", entityID).
			Msg("viewer input rejected")
		c.sendResult(inputResult{Type: "input_result", Accepted: false, Reason: "no_question"})
		return
	}
	c.sendResult(inputResult{Type: "input_result", Accepted: decision.Accepted, Reason: string(decision.Reason)})
}

// sendResult pushes a direct reply to this connection without blocking.
func (c *Connection) sendResult(res inputResult) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}
