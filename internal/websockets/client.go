package websockets

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

// EventType names an audit event published on the feed
type EventType string

const (
	TypeCodeGenerated      EventType = "code.generated"
	TypeCodeDeactivated    EventType = "code.deactivated"
	TypeCodeReactivated    EventType = "code.reactivated"
	TypeCodeDeleted        EventType = "code.deleted"
	TypeDeviceRegistered   EventType = "device.registered"
	TypeDeviceRenamed      EventType = "device.renamed"
	TypeDeviceLocked       EventType = "device.locked"
	TypeDeviceUnlocked     EventType = "device.unlocked"
	TypeDeviceDeactivated  EventType = "device.deactivated"
	TypeDeviceReactivated  EventType = "device.reactivated"
	TypeDeviceUnregistered EventType = "device.unregistered"
	TypeDeviceAssigned     EventType = "device.assigned"
	TypeDeviceUnassigned   EventType = "device.unassigned"
	TypePing               EventType = "ping"
	TypePong               EventType = "pong"
)

// Event is the wire format of one audit feed entry
type Event struct {
	Type    EventType       `json:"type"`
	StoreID string          `json:"store_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	At      time.Time       `json:"at"`
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID string

	storeID string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, storeID string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		userID:  userID,
		storeID: storeID,
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
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
				log.Printf("error: %v", err)
			}
			break
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		// The feed is one-way; clients only send keepalives
		switch event.Type {
		case TypePing:
			pongMsg, _ := json.Marshal(Event{Type: TypePong, At: time.Now()})
			c.send <- pongMsg
		}
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

func ServeWs(hub *Hub, conn *websocket.Conn, userID, storeID string) {
	client := NewClient(hub, conn, userID, storeID)

	client.hub.register <- client
	client.hub.RegisterStoreClient(client, storeID)

	go client.writePump()
	go client.readPump()
}
