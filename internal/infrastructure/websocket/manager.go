package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one registered realtime connection. Key is the participant's
// socket key: a plain user id or "shop_<id>".
type Client struct {
	Key  string
	Conn *websocket.Conn
	Send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(key string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		Key:  key,
		Conn: conn,
		Send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// shutdown signals WritePump to stop. Send is never closed, so an Emit
// racing a replacement cannot panic on a closed channel.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Manager is the process-local socket registry: one connection per key,
// rebuilt empty on restart. Emitting to an absent key is a no-op.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the registry loop until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if prev, ok := m.clients[client.Key]; ok {
					prev.shutdown()
				}
				m.clients[client.Key] = client
				m.mutex.Unlock()
				log.Printf("Socket registered: %s", client.Key)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.Key]; ok && current == client {
					delete(m.clients, client.Key)
				}
				m.mutex.Unlock()
				client.shutdown()
				log.Printf("Socket unregistered: %s", client.Key)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Lookup reports whether a connection is registered for key.
func (m *Manager) Lookup(key string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.clients[key]
	return ok
}

// Emit marshals an event envelope and pushes it to the connection registered
// for key. Absent key or a full send buffer drops the event; emission never
// blocks the caller.
func (m *Manager) Emit(key, event string, payload interface{}) {
	m.mutex.RLock()
	client, ok := m.clients[key]
	m.mutex.RUnlock()

	if !ok {
		return
	}

	data, err := json.Marshal(Envelope{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Emit: failed to marshal %s event for %s: %v", event, key, err)
		return
	}

	select {
	case <-client.done:
	case client.Send <- data:
	default:
		log.Printf("Emit: dropping %s event for %s, send buffer full", event, key)
	}
}

// ReadPump drains the connection until it closes, then unregisters.
// Inbound frames are ignored; the realtime channel is push-only.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Socket read error for %s: %v", c.Key, err)
			}
			break
		}
	}
}

// WritePump forwards queued events to the connection until shutdown.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		select {
		case <-c.done:
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Socket write error for %s: %v", c.Key, err)
				return
			}
		}
	}
}
