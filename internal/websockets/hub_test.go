package websockets

import (
	"encoding/json"
	"testing"
)

func TestBroadcastWhileClientsChurn(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// A stalled watcher: its send buffer is full, so the next broadcast
	// that reaches it must drop it
	stalled := NewClient(hub, nil, "u-stalled", "store-1")
	hub.register <- stalled
	hub.RegisterStoreClient(stalled, "store-1")
	for i := 0; i < cap(stalled.send); i++ {
		stalled.send <- []byte("backlog")
	}

	// Broadcast from one goroutine while clients register and
	// unregister from another, the way handler goroutines and
	// connection teardowns interleave in the server
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			hub.BroadcastToStore("store-1", []byte("event"))
		}
	}()

	for i := 0; i < 200; i++ {
		client := NewClient(hub, nil, "u", "store-1")
		hub.register <- client
		hub.RegisterStoreClient(client, "store-1")
		hub.unregister <- client
	}
	<-done

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.clients[stalled]; ok {
		t.Error("Stalled client should have been dropped by the broadcast")
	}
	if _, ok := hub.storeChannels["store-1"][stalled]; ok {
		t.Error("Stalled client should have left the store channel")
	}
}

func TestPublishEventReachesOnlyItsStore(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	watcherA := NewClient(hub, nil, "u-a", "store-a")
	hub.register <- watcherA
	hub.RegisterStoreClient(watcherA, "store-a")

	watcherB := NewClient(hub, nil, "u-b", "store-b")
	hub.register <- watcherB
	hub.RegisterStoreClient(watcherB, "store-b")

	hub.PublishEvent(TypeDeviceRegistered, "store-a", map[string]string{"id": "d1"})

	select {
	case message := <-watcherA.send:
		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			t.Fatalf("Failed to unmarshal event: %v", err)
		}
		if event.Type != TypeDeviceRegistered {
			t.Errorf("Expected event type %s, got %s", TypeDeviceRegistered, event.Type)
		}
		if event.StoreID != "store-a" {
			t.Errorf("Expected store-a, got %s", event.StoreID)
		}
	default:
		t.Fatal("Watcher of the publishing store received nothing")
	}

	select {
	case <-watcherB.send:
		t.Error("Watcher of another store should not receive the event")
	default:
	}
}
