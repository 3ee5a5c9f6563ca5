package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/dinnerhall/api/internal/service"
	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventOrderStatus is pushed whenever an order changes status, including
// its creation at checkout.
const EventOrderStatus = "order.status"

// storeEvent is an internal struct for routing events to a store's room
type storeEvent struct {
	StoreID uuid.UUID
	Event   Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by store ID
	rooms map[uuid.UUID]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *storeEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *storeEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.storeID] == nil {
				h.rooms[client.storeID] = make(map[*Client]bool)
			}
			h.rooms[client.storeID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.storeID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.storeID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.StoreID]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			// Send to all clients in this store's room
			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.StoreID], client)
					if len(h.rooms[event.StoreID]) == 0 {
						delete(h.rooms, event.StoreID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToStore sends an event to all clients subscribed to a store
func (h *Hub) BroadcastToStore(storeID uuid.UUID, event Event) {
	h.broadcast <- &storeEvent{
		StoreID: storeID,
		Event:   event,
	}
}

// OrderStatusChanged implements service.Notifier: lifecycle transitions
// committed by the order service fan out to the store's room here.
func (h *Hub) OrderStatusChanged(storeID uuid.UUID, event service.StatusEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: marshal status event: %v", err)
		return
	}
	h.BroadcastToStore(storeID, Event{Type: EventOrderStatus, Payload: payload})
}
