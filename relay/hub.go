// Package relay forwards broadcast events published on Redis to WebSocket
// clients connected to this service.
package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Client is one WebSocket connection listening on one channel.
type Client struct {
	channel string
	conn    *websocket.Conn
	send    chan []byte
}

func (c *Client) Channel() string { return c.channel }

// Hub holds the connected clients grouped by channel.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	logger   *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*Client]struct{}),
		logger:   logger,
	}
}

// Register adds conn to channel. The caller runs WritePump and ReadPump.
func (h *Hub) Register(channel string, conn *websocket.Conn) *Client {
	client := &Client{
		channel: channel,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}

	h.logger.WithFields(logrus.Fields{
		"channel": channel,
		"clients": len(h.channels[channel]),
	}).Debug("Relay client registered")
	return client
}

// Unregister removes the client and stops its write pump. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(client)
}

// remove expects h.mu held for writing.
func (h *Hub) remove(client *Client) {
	clients, ok := h.channels[client.channel]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.channels, client.channel)
	}
}

// Publish queues data for every client on channel and returns how many
// accepted it. Clients whose buffer is full are dropped.
func (h *Hub) Publish(channel string, data []byte) int {
	h.mu.RLock()
	var delivered int
	var slow []*Client
	for client := range h.channels[channel] {
		select {
		case client.send <- data:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, client := range slow {
			h.remove(client)
		}
		h.mu.Unlock()
		h.logger.WithFields(logrus.Fields{
			"channel": channel,
			"dropped": len(slow),
		}).Warn("Dropped slow relay clients")
	}
	return delivered
}

// Count returns the number of clients on channel.
func (h *Hub) Count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.channels {
		for client := range clients {
			h.remove(client)
		}
	}
}

// WritePump writes queued messages and keepalive pings until the client is
// unregistered or a write fails.
func (c *Client) WritePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// ReadPump discards client messages and returns when the connection drops.
func (c *Client) ReadPump() {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
