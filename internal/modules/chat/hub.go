package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// roomConn is the slice of *websocket.Conn the hub needs. Tests plug in
// fakes; production passes gorilla connections.
type roomConn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client wraps one socket connection. Every outgoing frame is queued on
// send and written by the client's write pump, the only goroutine that
// ever writes to the connection. Gorilla connections support at most
// one concurrent writer.
type Client struct {
	hub    *Hub
	conn   roomConn
	userID int64
	send   chan interface{}
	once   sync.Once
}

// Send queues a frame for the write pump. Delivery is best effort: a
// full queue or an unregistered client drops the frame.
func (c *Client) Send(message interface{}) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if _, ok := c.hub.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// writePump drains the send queue onto the socket and keeps the
// connection alive with pings. It exits when the queue closes or a
// write fails, closing the connection either way.
func (c *Client) writePump() {
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
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.Unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Unregister(c)
				return
			}
		}
	}
}

// Hub tracks live clients and their booking rooms. Fan-out never
// touches a socket directly; it enqueues onto each client's pump.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[int64]map[*Client]struct{}),
	}
}

// Register wraps the connection and starts its write pump.
func (h *Hub) Register(conn roomConn, userID int64) *Client {
	c := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan interface{}, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	return c
}

// Unregister drops the client from every room and shuts its pump down.
// Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for bookingID := range h.rooms {
		h.evict(bookingID, c)
	}
	c.once.Do(func() { close(c.send) })
}

func (h *Hub) Join(bookingID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	room, ok := h.rooms[bookingID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[bookingID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) Leave(bookingID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evict(bookingID, c)
}

// Broadcast queues the message for every client in the room and returns
// how many accepted it. Clients that stopped draining are skipped; the
// pump tears them down once the socket actually dies.
func (h *Hub) Broadcast(bookingID int64, message interface{}) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.rooms[bookingID] {
		select {
		case c.send <- message:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) RoomSize(bookingID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[bookingID])
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		c.once.Do(func() { close(c.send) })
	}
	for bookingID := range h.rooms {
		delete(h.rooms, bookingID)
	}
}

// evict must run under the write lock.
func (h *Hub) evict(bookingID int64, c *Client) {
	room, ok := h.rooms[bookingID]
	if !ok {
		return
	}
	if _, exists := room[c]; exists {
		delete(room, c)
	}
	if len(room) == 0 {
		delete(h.rooms, bookingID)
	}
}
