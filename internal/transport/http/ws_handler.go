package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"confluenze-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Hub owns the observer registry for live broadcast. It implements
// app.EventPublisher: publishing is fire-and-forget and never blocks the
// mutating request; observers that cannot keep up miss events, observers that
// miss a liveness probe are closed and removed.
type Hub struct {
	upgrader      websocket.Upgrader
	probeInterval time.Duration

	mu        sync.RWMutex
	observers map[*observer]struct{}
}

type observer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewHub(probeInterval time.Duration) *Hub {
	if probeInterval <= 0 {
		probeInterval = 30 * time.Second
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		probeInterval: probeInterval,
		observers:     make(map[*observer]struct{}),
	}
}

// Publish fans the event out to every subscribed observer. Slow observers
// drop the event rather than delaying the publisher.
func (h *Hub) Publish(event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for obs := range h.observers {
		select {
		case obs.send <- data:
		default:
			log.Printf("observer %s lagging, dropped %s event", obs.id, event.Type)
		}
	}
}

type observerMessage struct {
	Type string `json:"type"`
}

// ServeWS upgrades the connection and runs the observer protocol: nothing is
// delivered until the client sends a subscribe message.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	obs := &observer{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 16),
	}
	go h.writePump(obs)

	pongWait := h.probeInterval * 2
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg observerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			h.add(obs)
		case "unsubscribe":
			h.removeFromRegistry(obs)
		}
	}

	h.remove(obs)
}

// writePump serializes all writes: broadcast payloads and liveness pings. A
// failed write or a missed pong (read deadline) tears the connection down.
func (h *Hub) writePump(obs *observer) {
	ticker := time.NewTicker(h.probeInterval)
	defer func() {
		ticker.Stop()
		obs.conn.Close()
	}()

	for {
		select {
		case data, ok := <-obs.send:
			_ = obs.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = obs.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := obs.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("observer %s write failed: %v", obs.id, err)
				return
			}
		case <-ticker.C:
			_ = obs.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := obs.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(obs *observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.observers[obs]; !ok {
		h.observers[obs] = struct{}{}
		log.Printf("observer %s subscribed (%d total)", obs.id, len(h.observers))
	}
}

func (h *Hub) removeFromRegistry(obs *observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.observers, obs)
}

// remove drops the observer and releases its writer.
func (h *Hub) remove(obs *observer) {
	h.removeFromRegistry(obs)
	obs.once.Do(func() { close(obs.send) })
}

func (h *Hub) observerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
