package websocket

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 1024
	sendBuffer     = 64
)

// StreamMessageType identifies what a websocket frame carries.
type StreamMessageType string

const (
	// Server to client.
	StreamTypeAlert       StreamMessageType = "alert"
	StreamTypePriceUpdate StreamMessageType = "price_update"
	StreamTypeStatus      StreamMessageType = "status"

	// Client to server.
	StreamTypeSubscribe StreamMessageType = "subscribe"
)

// StreamMessage is the frame exchanged over the farmer websocket.
type StreamMessage struct {
	Type      StreamMessageType      `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Channel   string                 `json:"channel,omitempty"`
	Target    string                 `json:"target,omitempty"`
	Source    string                 `json:"source,omitempty"`
}

// Manager owns the live websocket connections and routes alert and
// price-update frames to them.
type Manager struct {
	connections map[string]*Connection
	mu          sync.RWMutex
	hub         *hub
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// Connection is one farmer's websocket session. A farmer may hold
// several at once (phone and kiosk); crop subscriptions are per
// connection.
type Connection struct {
	ID           string
	FarmerID     string
	Crops        []string
	Conn         *websocket.Conn
	Send         chan StreamMessage
	LastActivity time.Time
	mu           sync.Mutex
}

// hub serializes registration and broadcast fan-out. Only the hub
// closes a connection's Send channel.
type hub struct {
	connections map[*Connection]bool
	broadcast   chan StreamMessage
	register    chan *Connection
	unregister  chan *Connection
	stop        chan struct{}
}

// NewManager creates a websocket manager and starts its hub.
func NewManager(logger *zap.Logger) *Manager {
	h := &hub{
		connections: make(map[*Connection]bool),
		broadcast:   make(chan StreamMessage, 256),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		stop:        make(chan struct{}),
	}

	m := &Manager{
		connections: make(map[string]*Connection),
		hub:         h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO(origin): restrict to the portal frontend origin
				// once its production domain is fixed.
				return true
			},
		},
		logger: logger,
	}

	go m.run()

	return m
}

// HandleConnection upgrades the request and starts the session pumps.
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	farmerID := r.URL.Query().Get("farmer_id")
	if farmerID == "" {
		farmerID = r.Header.Get("X-User-ID")
	}
	if farmerID == "" {
		farmerID = uuid.New().String()
	}

	connection := &Connection{
		ID:           uuid.New().String(),
		FarmerID:     farmerID,
		Conn:         conn,
		Send:         make(chan StreamMessage, sendBuffer),
		LastActivity: time.Now(),
	}

	select {
	case m.hub.register <- connection:
	case <-m.hub.stop:
		conn.Close()
		return nil, fmt.Errorf("websocket manager is shutting down")
	}

	m.mu.Lock()
	m.connections[connection.ID] = connection
	m.mu.Unlock()

	go m.readPump(connection)
	go m.writePump(connection)

	return connection, nil
}

// readPump drains client frames and keeps the read deadline alive.
func (m *Manager) readPump(conn *Connection) {
	defer func() {
		select {
		case m.hub.unregister <- conn:
		case <-m.hub.stop:
		}
		m.mu.Lock()
		delete(m.connections, conn.ID)
		m.mu.Unlock()
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(maxMessageSize)
	conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg StreamMessage
		if err := conn.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn("Websocket read failed",
					zap.String("connection_id", conn.ID),
					zap.Error(err))
			}
			break
		}

		conn.mu.Lock()
		conn.LastActivity = time.Now()
		conn.mu.Unlock()

		m.handleMessage(conn, &msg)
	}
}

// writePump forwards queued frames and pings on a timer.
func (m *Manager) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (m *Manager) handleMessage(conn *Connection, msg *StreamMessage) {
	switch msg.Type {
	case StreamTypeSubscribe:
		m.handleSubscribe(conn, msg)
	default:
		m.logger.Debug("Ignoring websocket frame",
			zap.String("type", string(msg.Type)),
			zap.String("connection_id", conn.ID))
	}
}

// handleSubscribe replaces the connection's crop subscriptions.
func (m *Manager) handleSubscribe(conn *Connection, msg *StreamMessage) {
	if raw, ok := msg.Data["crops"].([]interface{}); ok {
		crops := make([]string, 0, len(raw))
		for _, item := range raw {
			if crop, ok := item.(string); ok {
				crops = append(crops, strings.ToLower(strings.TrimSpace(crop)))
			}
		}
		conn.mu.Lock()
		conn.Crops = crops
		conn.mu.Unlock()
	}

	conn.mu.Lock()
	subscribed := make([]string, len(conn.Crops))
	copy(subscribed, conn.Crops)
	conn.mu.Unlock()

	confirmation := StreamMessage{
		Type: StreamTypeStatus,
		Data: map[string]interface{}{
			"status":        "subscribed",
			"connection_id": conn.ID,
			"crops":         subscribed,
		},
		Timestamp: time.Now(),
		Channel:   "private",
		Target:    conn.FarmerID,
	}
	m.trySend(conn, confirmation)
}

// trySend drops the frame when the buffer is full. Closing Send here
// would race the hub; slow consumers miss frames instead.
func (m *Manager) trySend(conn *Connection, msg StreamMessage) bool {
	select {
	case conn.Send <- msg:
		return true
	default:
		m.logger.Warn("Dropping frame for slow websocket consumer",
			zap.String("connection_id", conn.ID))
		return false
	}
}

func (m *Manager) run() {
	for {
		select {
		case conn := <-m.hub.register:
			m.hub.connections[conn] = true
			m.logger.Info("Websocket connected",
				zap.String("connection_id", conn.ID),
				zap.String("farmer_id", conn.FarmerID))

		case conn := <-m.hub.unregister:
			if _, ok := m.hub.connections[conn]; ok {
				delete(m.hub.connections, conn)
				close(conn.Send)
				m.logger.Info("Websocket disconnected",
					zap.String("connection_id", conn.ID),
					zap.String("farmer_id", conn.FarmerID))
			}

		case message := <-m.hub.broadcast:
			for conn := range m.hub.connections {
				m.trySend(conn, message)
			}

		case <-m.hub.stop:
			for conn := range m.hub.connections {
				delete(m.hub.connections, conn)
				close(conn.Send)
			}
			return
		}
	}
}

// SendToFarmer queues a frame on every live connection of one farmer.
func (m *Manager) SendToFarmer(farmerID string, message StreamMessage) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	message.Target = farmerID
	message.Channel = "private"
	sent := 0
	for _, conn := range m.connections {
		if conn.FarmerID == farmerID && m.trySend(conn, message) {
			sent++
		}
	}
	if sent == 0 {
		return fmt.Errorf("farmer %s is not connected", farmerID)
	}
	return nil
}

// SendToCrop queues a frame on every connection subscribed to a crop.
func (m *Manager) SendToCrop(crop string, message StreamMessage) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	message.Target = crop
	message.Channel = "crop"
	sent := 0
	for _, conn := range m.connections {
		conn.mu.Lock()
		subscribed := false
		for _, c := range conn.Crops {
			if c == crop {
				subscribed = true
				break
			}
		}
		conn.mu.Unlock()
		if subscribed && m.trySend(conn, message) {
			sent++
		}
	}
	if sent == 0 {
		return fmt.Errorf("no subscribers for crop %s", crop)
	}
	return nil
}

// Broadcast queues a frame for every connection.
func (m *Manager) Broadcast(message StreamMessage) error {
	message.Channel = "broadcast"
	select {
	case m.hub.broadcast <- message:
		return nil
	default:
		return fmt.Errorf("broadcast channel full")
	}
}

// ConnectionCount reports the number of live connections.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Close stops the hub and drops every connection.
func (m *Manager) Close() {
	close(m.hub.stop)

	m.mu.Lock()
	for _, conn := range m.connections {
		conn.Conn.Close()
	}
	m.connections = make(map[string]*Connection)
	m.mu.Unlock()
}
