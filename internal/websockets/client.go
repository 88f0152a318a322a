package websockets

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/salesvisit/visit-service/internal/models"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

type MessageType string

const (
	TypeVisitPlanCreated   MessageType = "visit_plan.created"
	TypeVisitPlanUpdated   MessageType = "visit_plan.updated"
	TypeVisitPlanDeleted   MessageType = "visit_plan.deleted"
	TypeVisitReportCreated MessageType = "visit_report.created"
	TypeVisitReportUpdated MessageType = "visit_report.updated"
	TypeVisitReportDeleted MessageType = "visit_report.deleted"
	TypeCustomerCreated    MessageType = "customer.created"
	TypeCustomerUpdated    MessageType = "customer.updated"
	TypeCustomerDeleted    MessageType = "customer.deleted"
	TypeCustomersImported  MessageType = "customer.imported"
	TypeError              MessageType = "error"
	TypePing               MessageType = "ping"
	TypePong               MessageType = "pong"
)

type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is an outgoing notification
type Event struct {
	Type MessageType `json:"type"`
	Data any         `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	log  *zap.Logger

	userID string

	role models.UserRole
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, role models.UserRole, log *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		log:    log,
		userID: userID,
		role:   role,
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket closed unexpectedly", zap.String("user_id", c.userID), zap.Error(err))
			}
			break
		}

		var wsMessage Message
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			c.log.Debug("ignoring malformed websocket message", zap.String("user_id", c.userID), zap.Error(err))
			continue
		}

		// The channel is server-push; clients only ping
		switch wsMessage.Type {
		case TypePing:
			pongMsg, _ := json.Marshal(Message{Type: TypePong})
			c.trySend(pongMsg)
		default:
			errMsg, _ := json.Marshal(Event{Type: TypeError, Data: "unsupported message type", At: time.Now()})
			c.trySend(errMsg)
		}
	}
}

// trySend queues a direct reply without blocking the read loop
func (c *Client) trySend(message []byte) {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if _, ok := c.hub.clients[c]; ok {
		c.hub.deliver(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

func ServeWs(hub *Hub, conn *websocket.Conn, userID string, role models.UserRole, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	client := NewClient(hub, conn, userID, role, log)

	if !client.hub.join(client) {
		log.Debug("websocket hub stopped, closing connection", zap.String("user_id", userID))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
