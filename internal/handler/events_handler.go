package handler

import (
	"log"
	"net/http"

	"memoboard/internal/events"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

// EventsHandler upgrades connections onto the memo event feed. Like
// the GET routes, the feed is public read access.
type EventsHandler struct {
	hub      *events.Hub
	upgrader ws.Upgrader
}

func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *EventsHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("failed to upgrade event connection: %v", err)
		return
	}

	client := events.NewClient(uuid.New().String(), conn, h.hub)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
