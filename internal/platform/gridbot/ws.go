package gridbot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantflow/gridmon/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// handshakeTimeout bounds the WebSocket dial.
	handshakeTimeout = 15 * time.Second
)

// Stream is one live push-channel connection. It owns the underlying
// WebSocket, keeps it alive with pings, and hands raw frames to the caller
// via Read. A Stream is single-use: once Read returns an error the stream is
// dead and the caller decides whether and when to dial a new one.
type Stream struct {
	conn *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// DialStream connects to a push-channel endpoint.
func DialStream(ctx context.Context, wsURL string) (*Stream, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gridbot: dial %s: %w", wsURL, err)
	}

	s := &Stream{
		conn: conn,
		done: make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go s.pingLoop()

	return s, nil
}

// Read blocks until the next frame arrives and returns its payload. It
// returns domain.ErrWSDisconnect after Close, and the transport error when
// the connection drops.
func (s *Stream) Read() ([]byte, error) {
	_, message, err := s.conn.ReadMessage()
	if err != nil {
		select {
		case <-s.done:
			return nil, domain.ErrWSDisconnect
		default:
		}
		return nil, fmt.Errorf("gridbot: read frame: %w", err)
	}
	return message, nil
}

// Close shuts down the connection. Closing twice is a no-op.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		err = s.conn.Close()
	})
	return err
}

// pingLoop sends periodic ping messages to keep the WebSocket alive. It exits
// when the stream is closed or a write fails.
func (s *Stream) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
