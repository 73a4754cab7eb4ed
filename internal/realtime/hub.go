// Package realtime pushes domain events to dashboard and queue screens over
// websockets.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/event"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

type Client struct {
	UserID   string
	DealerID string
	conn     *websocket.Conn
	send     chan []byte
	once     sync.Once
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub keeps the open connections grouped by dealer.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  logger.ZapLogger
}

func NewHub(log logger.ZapLogger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.DealerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.DealerID] = set
	}
	set[c] = struct{}{}
	metrics.RealtimeConnections.Inc()
	h.logger.Debug("websocket client registered", zap.String("user_id", c.UserID), zap.String("dealer_id", c.DealerID))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.DealerID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.DealerID)
	}
	c.close()
	metrics.RealtimeConnections.Dec()
	h.logger.Debug("websocket client unregistered", zap.String("user_id", c.UserID), zap.String("dealer_id", c.DealerID))
}

// Count returns the number of clients connected for a dealer.
func (h *Hub) Count(dealerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[dealerID])
}

// Broadcast queues msg for every client of the dealer. Clients whose buffer
// is full are dropped.
func (h *Hub) Broadcast(dealerID string, msg []byte) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.clients[dealerID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow websocket client", zap.String("user_id", c.UserID))
		h.Unregister(c)
	}
}

// Publish implements event.Publisher.
func (h *Hub) Publish(_ context.Context, env event.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	h.Broadcast(env.DealerID, b)
	return nil
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unregister(c)
				return
			}
		}
	}
}

// readPump only services control frames; clients do not send data.
func (h *Hub) readPump(c *Client) {
	defer h.Unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.conn.SetPingHandler(func(data string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
