package httpserver

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ishangavidusha/httpserver/internal/metrics"
)

// streamConn is the connection surface the hub needs from an SSE
// client socket. *netpoll.Conn satisfies it; tests substitute fakes.
type streamConn interface {
	io.Reader
	io.Writer
	io.Closer
	FD() int
	RemoteAddr() string
}

// sseClient is one registered event-stream client.
type sseClient struct {
	id     string
	conn   streamConn
	cancel func()
}

// EventHub tracks connected event-stream clients and broadcasts named
// events to all of them.
//
// The hub is safe for concurrent use: stream handlers publish from
// their own goroutines while the connection loop registers, probes,
// and prunes clients. Delivery is best effort to the clients live at
// publish time; there is no retry and no replay for late joiners.
type EventHub struct {
	mu      sync.RWMutex
	clients map[streamConn]*sseClient
	events  map[string]string
	logger  *slog.Logger
}

func newEventHub(logger *slog.Logger) *EventHub {
	return &EventHub{
		clients: map[streamConn]*sseClient{},
		events:  map[string]string{},
		logger:  logger,
	}
}

// register adds a client to the live set. Registering a connection that
// is already present is a no-op. cancel, if non-nil, is invoked when
// the client is unregistered so its stream handler can stop.
func (h *EventHub) register(conn streamConn, cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		return
	}
	client := &sseClient{id: uuid.NewString(), conn: conn, cancel: cancel}
	h.clients[conn] = client
	metrics.StreamClientsActive.Inc()
	h.logger.Debug("stream client registered", "client_id", client.id, "remote", conn.RemoteAddr())
}

// unregister removes a client from the live set and cancels its stream
// handler. Unregistering an unknown or already-removed connection is a
// no-op.
func (h *EventHub) unregister(conn streamConn) {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		metrics.StreamClientsActive.Dec()
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	if client.cancel != nil {
		client.cancel()
	}
	h.logger.Debug("stream client unregistered", "client_id", client.id, "remote", conn.RemoteAddr())
}

// Publish records the event in the diagnostic cache and broadcasts it
// to every live client as a framed SSE message.
//
// Clients whose write fails are pruned after the broadcast completes;
// one failing client never interrupts delivery to the rest. Broadcast
// order across clients is unspecified.
func (h *EventHub) Publish(eventName, data string) {
	h.mu.Lock()
	h.events[eventName] = data
	snapshot := make([]streamConn, 0, len(h.clients))
	for conn := range h.clients {
		snapshot = append(snapshot, conn)
	}
	h.mu.Unlock()

	message := formatSSEMessage(eventName, data)
	var failed []streamConn
	for _, conn := range snapshot {
		if _, err := conn.Write(message); err != nil {
			h.logger.Debug("stream write failed", "remote", conn.RemoteAddr(), "error", err)
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		h.unregister(conn)
		conn.Close()
	}
	metrics.EventsPublishedTotal.WithLabelValues(eventName).Inc()
}

// ClientCount returns the number of currently connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Events returns a snapshot of the last payload seen per event name.
// The cache is diagnostic only; it is not replayed to new clients.
func (h *EventHub) Events() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snapshot := make(map[string]string, len(h.events))
	for k, v := range h.events {
		snapshot[k] = v
	}
	return snapshot
}

// conns returns a fresh snapshot of the live client connections for
// the poll loop. The set is re-read every loop iteration so newly
// registered clients are visible to the next poll.
func (h *EventHub) conns() []streamConn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snapshot := make([]streamConn, 0, len(h.clients))
	for conn := range h.clients {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

// closeAll unregisters and closes every client. Used on shutdown.
func (h *EventHub) closeAll() {
	for _, conn := range h.conns() {
		h.unregister(conn)
		conn.Close()
	}
}

// formatSSEMessage frames one event in the SSE wire format.
func formatSSEMessage(eventName, data string) []byte {
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventName, data))
}
