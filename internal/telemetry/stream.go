package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
	"github.com/autopeer-io/rentfleet/internal/vehicle"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

const (
	writeWait     = 5 * time.Second
	clientBacklog = 64
)

// ErrStreamClosed rejects subscribers once the hub is shut down.
var ErrStreamClosed = errno.New(http.StatusServiceUnavailable, "stream_closed", "telemetry stream is shut down")

// Stream is a websocket hub broadcasting every snapshot to all connected
// clients. A slow client loses snapshots instead of stalling the others.
type Stream struct {
	upgrader websocket.Upgrader
	snapshot func() []vehicle.Status

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

// NewStream creates a hub. snapshot, if set, is sent to each new client so
// it starts with the full fleet.
func NewStream(snapshot func() []vehicle.Status) *Stream {
	return &Stream{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		snapshot: snapshot,
		clients:  make(map[*websocket.Conn]chan []byte),
	}
}

func (s *Stream) Emit(_ context.Context, status vehicle.Status) {
	data, err := json.Marshal(status)
	if err != nil {
		log.Error(err, "Failed to encode telemetry", "vehicle", status.Name)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- data:
			metrics.TelemetryEmitted.WithLabelValues("stream", "sent").Inc()
		default:
			metrics.TelemetryEmitted.WithLabelValues("stream", "dropped").Inc()
		}
	}
}

// Clients returns the number of connected subscribers.
func (s *Stream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ServeHTTP upgrades the request and streams until the client goes away.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.isClosed() {
		httputil.WriteError(w, ErrStreamClosed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "error", err.Error())
		return
	}

	ch := make(chan []byte, clientBacklog)
	if s.snapshot != nil {
		if data, err := json.Marshal(s.snapshot()); err == nil {
			ch <- data
		}
	}
	if !s.add(conn, ch) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	log.Debug("Telemetry subscriber connected", "remote", r.RemoteAddr)

	go s.writePump(conn, ch)
	s.readPump(conn)
}

// Close disconnects every subscriber and refuses new ones.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c, ch := range s.clients {
		close(ch)
		delete(s.clients, c)
	}
}

// Start closes the hub once ctx is done.
func (s *Stream) Start(ctx context.Context) error {
	<-ctx.Done()
	s.Close()
	return nil
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// add registers c unless the hub is already closed.
func (s *Stream) add(c *websocket.Conn, ch chan []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = ch
	return true
}

func (s *Stream) remove(c *websocket.Conn) {
	s.mu.Lock()
	if ch, ok := s.clients[c]; ok {
		close(ch)
		delete(s.clients, c)
	}
	s.mu.Unlock()
}

// readPump discards client messages and detects disconnects.
func (s *Stream) readPump(c *websocket.Conn) {
	defer s.remove(c)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Stream) writePump(c *websocket.Conn, ch <-chan []byte) {
	defer c.Close()
	for data := range ch {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			s.remove(c)
			// drain until remove closes ch
			for range ch {
			}
			return
		}
	}
	_ = c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
}
