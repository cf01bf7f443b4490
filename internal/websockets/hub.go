package websockets

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub fans audit events out to subscribed management clients. Delivery
// is best-effort; a slow client is dropped, never waited on.
type Hub struct {
	clients map[*Client]bool

	register chan *Client

	unregister chan *Client

	storeChannels map[string]map[*Client]bool

	// mu guards clients and storeChannels; broadcasts run on handler
	// goroutines while Run mutates the same maps
	mu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		storeChannels: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) RegisterStoreClient(client *Client, storeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.storeChannels[storeID]; !ok {
		h.storeChannels[storeID] = make(map[*Client]bool)
	}
	h.storeChannels[storeID][client] = true
}

// BroadcastToStore delivers a raw message to every client watching the
// given store
func (h *Hub) BroadcastToStore(storeID string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.storeChannels[storeID]; ok {
		for client := range clients {
			select {
			case client.send <- message:
			default:
				close(client.send)
				delete(clients, client)
				delete(h.clients, client)
			}
		}
	}
}

// PublishEvent records an audit event for a store's watchers
func (h *Hub) PublishEvent(eventType EventType, storeID string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling event payload: %v", err)
		return
	}

	message, err := json.Marshal(Event{
		Type:    eventType,
		StoreID: storeID,
		Data:    payload,
		At:      time.Now(),
	})
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.BroadcastToStore(storeID, message)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			// A slow client may already have been dropped by a broadcast;
			// the membership check keeps the send channel from a double close
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				for _, clients := range h.storeChannels {
					delete(clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}
