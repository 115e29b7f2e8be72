package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"clinic-backend/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AgendaEvent is pushed to every connected reception station when an
// appointment changes.
type AgendaEvent struct {
	Event       string              `json:"event"`
	Date        string              `json:"date"`
	Appointment *models.Appointment `json:"appointment"`
	SentAt      time.Time           `json:"sent_at"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans agenda events out to websocket clients
type Hub struct {
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan AgendaEvent
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan AgendaEvent, 64),
		logger:    logger,
	}
}

// AppointmentChanged queues an event without blocking the caller. When the
// queue is full the event is dropped; stations reload the agenda on reconnect.
func (h *Hub) AppointmentChanged(event string, a *models.Appointment) {
	snapshot := *a
	msg := AgendaEvent{Event: event, Date: a.Date, Appointment: &snapshot, SentAt: time.Now()}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("agenda event dropped", zap.String("event", event), zap.Int("appointment_id", a.ID))
	}
}

// Run delivers queued events until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMux.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.clientsMux.Unlock()
			return
		case msg := <-h.broadcast:
			h.clientsMux.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := client.WriteJSON(msg); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.clientsMux.Unlock()
		}
	}
}

// ClientCount returns the number of connected stations
func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	h.clients[conn] = true
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			delete(h.clients, conn)
			h.clientsMux.Unlock()
			break
		}
	}
}
