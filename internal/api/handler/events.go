package handler

import (
	"github.com/storelink-nz/device-service/internal/websockets"
)

// EventPublisher is the audit feed mutations are published to.
// *websockets.Hub implements it.
type EventPublisher interface {
	PublishEvent(eventType websockets.EventType, storeID string, data interface{})
}
