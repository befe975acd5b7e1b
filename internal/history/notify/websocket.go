// Package notify delivers committed species events to external listeners.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"speciescore/pkg/domain"
)

var _ domain.Notifier = (*WebSocketNotifier)(nil)

// WebSocketNotifier broadcasts species events to connected WebSocket clients.
type WebSocketNotifier struct {
	id         string
	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	upgrader   websocket.Upgrader
	broadcast  chan domain.SpeciesEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewWebSocketNotifier constructs a notifier and starts its broadcaster.
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	n := &WebSocketNotifier{
		id:         id,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan domain.SpeciesEvent, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// ID returns the notifier identifier.
func (n *WebSocketNotifier) ID() string { return n.id }

// Type returns the notifier transport name.
func (n *WebSocketNotifier) Type() string { return "websocket" }

// Handler returns an HTTP handler that upgrades requests and registers the
// resulting connections.
func (n *WebSocketNotifier) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := n.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n.RegisterClient(conn)
	}
}

// RegisterClient adds a client connection to the broadcast set.
func (n *WebSocketNotifier) RegisterClient(conn *websocket.Conn) {
	select {
	case n.register <- conn:
	case <-n.done:
	}
}

// UnregisterClient removes a client connection.
func (n *WebSocketNotifier) UnregisterClient(conn *websocket.Conn) {
	select {
	case n.unregister <- conn:
	case <-n.done:
	}
}

// Notify queues the event for broadcast to all connected clients.
func (n *WebSocketNotifier) Notify(ctx context.Context, event domain.SpeciesEvent) error {
	select {
	case n.broadcast <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
		return fmt.Errorf("notification queue full")
	}
}

func (n *WebSocketNotifier) run() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return

		case conn := <-n.register:
			if conn == nil {
				continue
			}
			n.mu.Lock()
			n.clients[conn] = true
			n.mu.Unlock()

		case conn := <-n.unregister:
			if conn == nil {
				continue
			}
			n.mu.Lock()
			if _, ok := n.clients[conn]; ok {
				delete(n.clients, conn)
				_ = conn.Close()
			}
			n.mu.Unlock()

		case event := <-n.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			n.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(n.clients))
			for conn := range n.clients {
				conns = append(conns, conn)
			}
			n.mu.RUnlock()

			// Writes happen outside the lock so one stuck client cannot
			// stall registration.
			var failed []*websocket.Conn
			for _, conn := range conns {
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					failed = append(failed, conn)
					_ = conn.Close()
				}
			}
			if len(failed) > 0 {
				n.mu.Lock()
				for _, conn := range failed {
					delete(n.clients, conn)
				}
				n.mu.Unlock()
			}
		}
	}
}

// Close disconnects all clients and stops the broadcaster.
func (n *WebSocketNotifier) Close() error {
	close(n.done)

	n.mu.Lock()
	for conn := range n.clients {
		_ = conn.Close()
		delete(n.clients, conn)
	}
	n.mu.Unlock()

	n.wg.Wait()
	return nil
}
