package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/terminal"
	"github.com/gorilla/websocket"
)

const (
	wsReadLimit = 64 * 1024
	wsWriteWait = 10 * time.Second
)

// SafeConn serializes writes to a WebSocket connection.
type SafeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

// NewSafeConn creates a new safe connection wrapper
func NewSafeConn(conn *websocket.Conn) *SafeConn {
	return &SafeConn{conn: conn}
}

// WriteText writes one text frame. Writes after Close are ignored.
func (sc *SafeConn) WriteText(msg string) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if sc.closed {
		return nil
	}
	sc.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return sc.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// Close closes the underlying connection
func (sc *SafeConn) Close() error {
	sc.writeMu.Lock()
	sc.closed = true
	sc.writeMu.Unlock()
	return sc.conn.Close()
}

// handleWebSocket reads text frames as console lines and writes every output line back as JSON.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	safeConn := NewSafeConn(conn)
	defer safeConn.Close()

	events, unsubscribe := s.streams.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		conn.SetReadLimit(wsReadLimit)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Warn("websocket read failed", "error", err)
				}
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			s.acceptFrame(safeConn, string(data))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := safeConn.WriteText(msg); err != nil {
				s.logger.Warn("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) acceptFrame(conn *SafeConn, frame string) {
	for _, line := range strings.Split(frame, "\n") {
		clean, err := terminal.Sanitize(strings.TrimSpace(line), s.maxInput)
		if err != nil {
			s.metrics.LineRejected()
			reply, _ := json.Marshal(domain.OutputLine{
				Text:  fmt.Sprintf("Error: %v. Please try again.", err),
				Style: domain.StyleError,
			})
			conn.WriteText(string(reply))
			continue
		}
		if err := s.source.Push(clean); err != nil {
			s.logger.Warn("websocket line dropped", "error", err)
		}
	}
}
