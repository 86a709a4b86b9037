// Package events pushes memo mutations to connected websocket clients
// so open views can refresh without polling. The feed is one-way: the
// server broadcasts, clients only listen.
package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"memoboard/internal/domain"
)

type Hub struct {
	clients      map[string]*Client
	clientsMutex sync.RWMutex
	Register     chan *Client
	Unregister   chan *Client
	writeWait    time.Duration
	pongWait     time.Duration
	pingPeriod   time.Duration
}

func NewHub(writeWait, pongWait, pingPeriod time.Duration) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		writeWait:  writeWait,
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	h.clients[client.ID] = client
	log.Printf("event client registered: %s", client.ID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		log.Printf("event client unregistered: %s", client.ID)
	}
}

// ClientCount reports the number of connected listeners.
func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(message *Message) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("error marshaling event: %v", err)
		return
	}

	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	for id, client := range h.clients {
		select {
		case client.Send <- messageBytes:
		default:
			log.Printf("event client %s send buffer full, dropping connection", id)
			go func(c *Client) { h.Unregister <- c }(client)
		}
	}
}

func (h *Hub) publish(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		log.Printf("error building event message: %v", err)
		return
	}
	h.broadcast(msg)
}

// MemoCreated, MemoUpdated, and MemoDeleted satisfy the memo service's
// event sink.

func (h *Hub) MemoCreated(memo *domain.Memo) {
	h.publish(TypeMemoCreated, memo)
}

func (h *Hub) MemoUpdated(memo *domain.Memo) {
	h.publish(TypeMemoUpdated, memo)
}

func (h *Hub) MemoDeleted(id string) {
	h.publish(TypeMemoDeleted, MemoDeletedPayload{ID: id})
}
