package notify

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/gorilla/websocket"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// joinMessage is the first frame a client sends after connecting.
type joinMessage struct {
	UserId string `json:"userId"`
}

// wsEvent is the wire shape of a pushed notification.
type wsEvent struct {
	Type        string      `json:"type"`
	OrderId     string      `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	NewStatus   string      `json:"newStatus"`
	Order       interface{} `json:"order"`
}

// Client is one live websocket connection joined to a user room.
type Client struct {
	hub    *Hub
	userId string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// Hub maps user identities to their live connections and fans events out
// to exactly the room matching the event's user. Membership is mutated on
// join and cleaned up on disconnect; delivery to an empty room is silent.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	pool  *ants.Pool
	bus   EventBus.Bus
}

// NewHub creates the hub and subscribes it to the order status topic.
func NewHub(bus EventBus.Bus) (*Hub, error) {
	pool, err := ants.NewPool(64, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	h := &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		pool:  pool,
		bus:   bus,
	}
	if bus != nil {
		if err := bus.Subscribe(TopicOrderStatus, h.onStatusUpdate); err != nil {
			pool.Release()
			return nil, err
		}
	}
	return h, nil
}

// Close releases the fan-out pool and unsubscribes from the bus.
func (h *Hub) Close() {
	if h.bus != nil {
		_ = h.bus.Unsubscribe(TopicOrderStatus, h.onStatusUpdate)
	}
	// Snapshot and detach clients first: Client.close re-enters the hub
	// via leave, which needs the lock we hold here.
	h.mu.Lock()
	var clients []*Client
	for _, room := range h.rooms {
		for c := range room {
			clients = append(clients, c)
		}
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.pool.Release()
}

func (h *Hub) onStatusUpdate(evt StatusUpdateEvent) {
	h.Publish(evt.UserId, evt)
}

// Publish fans an event out to every connection currently joined to the
// user's room. No delivery guarantee is made; clients that connect later
// catch up via polling.
func (h *Hub) Publish(userId string, evt StatusUpdateEvent) {
	payload, err := json.Marshal(wsEvent{
		Type:        "orderStatusUpdate",
		OrderId:     strconv.FormatInt(evt.OrderId, 10),
		OrderNumber: evt.OrderNumber,
		NewStatus:   evt.NewStatus,
		Order:       evt.Order,
	})
	if err != nil {
		zap.L().Error("notify: marshal status event failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	room := h.rooms[userId]
	members := make([]*Client, 0, len(room))
	for c := range room {
		members = append(members, c)
	}
	h.mu.RUnlock()

	if len(members) == 0 {
		zap.L().Debug("notify: no subscribers for user", zap.String("user_id", userId))
		return
	}

	for _, c := range members {
		client := c
		if err := h.pool.Submit(func() { client.enqueue(payload) }); err != nil {
			// Pool saturated; deliver inline rather than drop.
			client.enqueue(payload)
		}
	}
	zap.L().Debug("notify: published status update",
		zap.String("user_id", userId),
		zap.String("order", evt.OrderNumber),
		zap.Int("subscribers", len(members)))
}

// RoomSize returns the number of live connections joined for a user.
func (h *Hub) RoomSize(userId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userId])
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userId]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.userId] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
	zap.L().Info("notify: user joined room", zap.String("user_id", c.userId))
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.userId]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.userId)
		}
	}
	h.mu.Unlock()
}

// HandleConn drives one websocket connection: it waits for the join frame,
// registers the client in its user room and then blocks reading control
// frames until the peer disconnects. The hub takes ownership of conn.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var join joinMessage
	if err := conn.ReadJSON(&join); err != nil || join.UserId == "" {
		zap.L().Debug("notify: connection closed before join", zap.Error(err))
		_ = conn.Close()
		return
	}

	c := &Client{
		hub:    h,
		userId: join.UserId,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
	h.join(c)
	go c.writePump()
	c.readPump()
}

func (c *Client) enqueue(payload []byte) {
	defer func() {
		// enqueue may race with close; a send on the closed channel is
		// treated as a dropped frame for a departing client.
		_ = recover()
	}()
	select {
	case c.send <- payload:
	default:
		zap.L().Warn("notify: slow consumer, dropping frame", zap.String("user_id", c.userId))
	}
}

func (c *Client) readPump() {
	defer c.close()
	for {
		// Clients only speak once (the join frame); everything after is
		// control traffic or a disconnect.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
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

func (c *Client) close() {
	c.once.Do(func() {
		c.hub.leave(c)
		close(c.send)
		_ = c.conn.Close()
	})
}
