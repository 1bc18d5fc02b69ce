// Package websocket provides a WebSocket fact stream: every text message
// the server sends is one fact envelope.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1 << 20
)

var _ output.FactStream = (*Stream)(nil)

// Stream reads facts from a WebSocket endpoint. It never reconnects.
type Stream struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stream for url (ws:// or wss://).
func New(url string, header http.Header, logger *zerolog.Logger) *Stream {
	return &Stream{
		url:    url,
		header: header,
		dialer: websocket.DefaultDialer,
		logger: logging.Component(logger, "websocket"),
	}
}

func (s *Stream) Open(ctx context.Context) (<-chan []byte, <-chan error, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		if resp != nil {
			return nil, nil, fmt.Errorf("websocket dial %s: status %d: %w", s.url, resp.StatusCode, err)
		}
		return nil, nil, fmt.Errorf("websocket dial %s: %w", s.url, err)
	}
	s.logger.Info().Str("url", s.url).Msg("✅ WebSocket connected")

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.conn = conn
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	msgs := make(chan []byte, 64)
	errs := make(chan error, 1)
	go s.writePump(ctx, conn)
	go func() {
		defer close(done)
		defer close(msgs)
		defer close(errs)
		if err := s.readPump(ctx, conn, msgs); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()
	return msgs, errs, nil
}

func (s *Stream) readPump(ctx context.Context, conn *websocket.Conn, msgs chan<- []byte) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info().Msg("WebSocket closed")
				return nil
			}
			s.logger.Error().Err(err).Msg("WebSocket read error")
			return fmt.Errorf("websocket read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if kind != websocket.TextMessage {
			continue
		}
		select {
		case msgs <- data:
		case <-ctx.Done():
			return nil
		}
	}
}

// writePump keeps the connection alive and says goodbye on teardown. It is
// the only writer of conn.
func (s *Stream) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug().Err(err).Msg("WebSocket ping failed")
			}
		}
	}
}

// Close sends a close frame, closes the connection and waits for the reader.
func (s *Stream) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done, s.conn = nil, nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
