package api

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mchmarny/menued/pkg/menu"
	"github.com/mchmarny/menued/pkg/store"
)

const (
	watchBuffer       = 8
	watchWriteTimeout = 10 * time.Second
)

// Hub streams the full forest to websocket clients: once on connect, then
// after every change. A client that falls more than watchBuffer updates
// behind is disconnected.
type Hub struct {
	store    *store.Store
	upgrader websocket.Upgrader

	mu      sync.Mutex // protects closed and clients.Add
	closed  bool
	quit    chan struct{}
	clients sync.WaitGroup
}

// NewHub creates a hub over s.
func NewHub(s *store.Store) *Hub {
	return &Hub{
		store: s,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true }, // local single-user tool
		},
		quit: make(chan struct{}),
	}
}

// Close disconnects every client and waits for their goroutines.
func (h *Hub) Close() {
	h.stop()
	h.clients.Wait()
}

func (h *Hub) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.quit)
	}
}

// join registers a client unless the hub is closed.
func (h *Hub) join() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients.Add(1)
	return true
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.join() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.clients.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("watcher connected", "remote", r.RemoteAddr)
	defer slog.Info("watcher disconnected", "remote", r.RemoteAddr)

	updates := make(chan []byte, watchBuffer)
	var lagged atomic.Bool
	cancel := h.store.Subscribe(func(f menu.Forest) {
		b, err := f.Bytes()
		if err != nil {
			slog.Error("failed to encode forest for watcher", "error", err)
			return
		}
		select {
		case updates <- b:
		default:
			lagged.Store(true)
		}
	})
	defer cancel()

	// reads only detect the peer going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-h.quit:
			h.closeWith(conn, websocket.CloseGoingAway, "server shutting down")
			return
		case <-gone:
			return
		case b := <-updates:
			if lagged.Load() {
				slog.Warn("watcher fell behind, disconnecting", "remote", r.RemoteAddr)
				h.closeWith(conn, websocket.CloseTryAgainLater, "too slow")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				slog.Warn("failed to write to watcher", "error", err)
				return
			}
		}
	}
}

func (h *Hub) closeWith(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
