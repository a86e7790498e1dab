package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	subscriberBuffer = 64
	writeWait        = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// AuditHub fans audit events out to websocket subscribers.
// A subscriber whose buffer is full is dropped rather than blocking moderation.
type AuditHub struct {
	mu          sync.RWMutex
	subscribers map[string]chan []byte
	upgrader    websocket.Upgrader
}

// NewAuditHub creates an empty hub
func NewAuditHub() *AuditHub {
	return &AuditHub{
		subscribers: make(map[string]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 10,
			WriteBufferSize: 1 << 12,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe registers a new subscriber and returns its frames and a cancel func
func (h *AuditHub) Subscribe() (<-chan []byte, func()) {
	id := uuid.NewString()
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	return ch, func() { h.drop(id) }
}

func (h *AuditHub) drop(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Subscribers returns how many clients are connected
func (h *AuditHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *AuditHub) Audit(_ context.Context, event enforcement.AuditEvent) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit frame: %w", err)
	}

	var slow []string
	h.mu.RLock()
	for id, ch := range h.subscribers {
		select {
		case ch <- frame:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		logger.Warn("Suscriptor de auditoría demasiado lento, desconectando "+id, "WebServer")
		h.drop(id)
	}
	return nil
}

// ServeWS upgrades the request and streams frames until either side closes
func (h *AuditHub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(fmt.Sprintf("Error actualizando websocket: %v", err), "WebServer")
		return
	}
	defer conn.Close()

	frames, cancel := h.Subscribe()
	defer cancel()

	// The read side only exists to notice the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "lento"), time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
