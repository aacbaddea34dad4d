package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/mash-controller/internal/status"
)

// Hub fans status updates out to websocket clients. Register, unregister
// and broadcast all go through channels; Run owns the client set.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	upgrader   websocket.Upgrader
	tracker    *status.Tracker
	done       chan struct{} // closed when Run returns
}

// NewHub allocates a hub. New clients are sent the tracker's current
// snapshot on connect. Call Run in a goroutine to start the event loop.
func NewHub(tracker *status.Tracker) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn, 16),
		unregister: make(chan *websocket.Conn, 16),
		broadcast:  make(chan []byte, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tracker: tracker,
		done:    make(chan struct{}),
	}
}

// Run processes registrations, broadcasts and keepalive pings until ctx is
// cancelled, then closes every client. Connections arriving afterwards are
// closed straight away. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				_ = c.Close()
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.tracker != nil {
				h.send(c, websocket.TextMessage, status.FormatStatusEvent(h.tracker.Snapshot(), "", ""))
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				_ = c.Close()
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				h.send(c, websocket.TextMessage, msg)
			}

		case <-ping.C:
			for c := range h.clients {
				h.send(c, websocket.PingMessage, nil)
			}
		}
	}
}

// send writes one message, dropping the client on failure.
func (h *Hub) send(c *websocket.Conn, kind int, msg []byte) {
	_ = c.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := c.WriteMessage(kind, msg); err != nil {
		delete(h.clients, c)
		_ = c.Close()
	}
}

// Handler upgrades requests to websocket connections and registers them.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case <-h.done:
			_ = conn.Close()
			return
		default:
		}
		select {
		case h.register <- conn:
		case <-h.done:
			_ = conn.Close()
			return
		}

		go func() {
			defer func() {
				select {
				case h.unregister <- conn:
				case <-h.done:
					_ = conn.Close()
				}
			}()
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			conn.SetPongHandler(func(string) error {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				return nil
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// Broadcast queues a message for every client. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// BroadcastSnapshot pushes the current status to every client.
func (h *Hub) BroadcastSnapshot(snap status.Snapshot) {
	h.Broadcast(status.FormatStatusEvent(snap, "", ""))
}
