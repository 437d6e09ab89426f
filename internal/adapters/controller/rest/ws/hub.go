package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/pkg/logger/types"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the payload pushed to a subscriber for each delivered or grouped notification.
type Event struct {
	Event        string              `json:"event"`
	Notification entity.Notification `json:"notification"`
}

type connection struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
	once   sync.Once
}

func (c *connection) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub keeps the open websocket connections of every user.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*connection]struct{}
	logger      *types.Logger
}

func NewHub(logger *types.Logger) *Hub {
	return &Hub{
		connections: make(map[string]map[*connection]struct{}),
		logger:      logger,
	}
}

// Publish sends the notification to every open connection of the user. A connection
// whose buffer is full is dropped.
func (h *Hub) Publish(userID string, notification entity.Notification) {
	payload, err := json.Marshal(Event{Event: "notification", Notification: notification})
	if err != nil {
		h.logger.Errorf("failed to encode feed event (id=%s): %v", notification.ID, err)
		return
	}

	h.mu.RLock()
	var slow []*connection
	for c := range h.connections[userID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warnf("dropping slow feed subscriber (user_id=%s)", userID)
		h.remove(c)
	}
}

// Connections returns the number of open connections of the user.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &connection{conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}
	h.add(c)
	go h.writeLoop(c)
	h.readLoop(c)
	return nil
}

func (h *Hub) add(c *connection) {
	h.mu.Lock()
	if _, ok := h.connections[c.userID]; !ok {
		h.connections[c.userID] = make(map[*connection]struct{})
	}
	h.connections[c.userID][c] = struct{}{}
	total := len(h.connections[c.userID])
	h.mu.Unlock()

	h.logger.Debugf("feed connected (user_id=%s, total=%d)", c.userID, total)
}

func (h *Hub) remove(c *connection) {
	h.mu.Lock()
	if conns, ok := h.connections[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.connections, c.userID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *Hub) readLoop(c *connection) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
		h.logger.Debugf("feed disconnected (user_id=%s)", c.userID)
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Warnf("failed to write feed event (user_id=%s): %v", c.userID, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
