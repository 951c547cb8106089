package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Sender serializes writes to one connection. Gorilla allows a single
// concurrent writer, and our handlers write from both the read loop and an
// event-forwarding goroutine.
type Sender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewSender(conn *websocket.Conn) *Sender {
	return &Sender{conn: conn}
}

// WriteTyped sends a strongly-typed payload over the WebSocket.
func (s *Sender) WriteTyped(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (s *Sender) WriteError(errMsg string) error {
	return s.WriteTyped(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	return conn.ReadJSON(v)
}
