// Package sse provides a Server-Sent Events fact stream.
//
// The stream behaves like a browser EventSource: only unnamed and "message"
// events are delivered, a dropped connection is re-established after the
// server's retry delay with Last-Event-ID, and an HTTP error or a wrong
// content type fails the stream for good.
package sse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
)

// DefaultRetry is the reconnection delay until the server sends "retry:".
const DefaultRetry = 3 * time.Second

const maxEventSize = 1 << 20

var _ output.FactStream = (*Stream)(nil)

// ErrStreamRejected is returned when the server answers with something other
// than a 200 text/event-stream response.
var ErrStreamRejected = errors.New("sse: stream rejected")

// Event is one dispatched SSE event.
type Event struct {
	Event string
	ID    string
	Data  string
}

// Stream reads facts from an SSE endpoint.
type Stream struct {
	url    string
	client *http.Client
	logger *zerolog.Logger

	mu          sync.Mutex
	lastEventID string
	retry       time.Duration
	cancel      context.CancelFunc
	done        chan struct{}
}

// New creates a stream for url. A nil client means http.DefaultClient.
func New(url string, client *http.Client, logger *zerolog.Logger) *Stream {
	if client == nil {
		client = http.DefaultClient
	}
	return &Stream{
		url:    url,
		client: client,
		retry:  DefaultRetry,
		logger: logging.Component(logger, "sse"),
	}
}

// Open connects once synchronously so that a bad URL or a rejected stream
// is reported to the caller, then reads in the background.
func (s *Stream) Open(ctx context.Context) (<-chan []byte, <-chan error, error) {
	ctx, cancel := context.WithCancel(ctx)
	body, err := s.connect(ctx)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	msgs := make(chan []byte, 64)
	errs := make(chan error, 1)
	go func() {
		defer close(done)
		defer close(msgs)
		defer close(errs)
		if err := s.loop(ctx, body, msgs); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()
	return msgs, errs, nil
}

func (s *Stream) loop(ctx context.Context, body io.ReadCloser, msgs chan<- []byte) error {
	for {
		err := s.read(ctx, body, func(ev Event) bool {
			if ev.Event != "" && ev.Event != "message" {
				return true
			}
			select {
			case msgs <- []byte(ev.Data):
				return true
			case <-ctx.Done():
				return false
			}
		})
		_ = body.Close()
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn().Err(err).Dur("retry", s.retryDelay()).Msg("SSE connection lost, reconnecting")

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.retryDelay()):
			}
			body, err = s.connect(ctx)
			if err == nil {
				break
			}
			if errors.Is(err, ErrStreamRejected) {
				return err
			}
			s.logger.Warn().Err(err).Msg("SSE reconnect failed")
		}
	}
}

func (s *Stream) connect(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("sse request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if id := s.LastEventID(); id != "" {
		req.Header.Set("Last-Event-ID", id)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sse connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrStreamRejected, resp.StatusCode)
	}
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "text/event-stream" {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: content type %q", ErrStreamRejected, resp.Header.Get("Content-Type"))
	}
	s.logger.Info().Str("url", s.url).Msg("✅ SSE connected")
	return resp.Body, nil
}

// read parses the event stream, calling dispatch for every complete event
// until dispatch returns false or the body ends.
func (s *Stream) read(ctx context.Context, body io.Reader, dispatch func(Event) bool) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var (
		ev   Event
		data []string
	)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 {
				ev.ID = s.LastEventID()
				ev.Data = strings.Join(data, "\n")
				if !dispatch(ev) {
					return nil
				}
			}
			ev, data = Event{}, nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			ev.Event = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				s.mu.Lock()
				s.lastEventID = value
				s.mu.Unlock()
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				s.mu.Lock()
				s.retry = time.Duration(ms) * time.Millisecond
				s.mu.Unlock()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("sse read: %w", err)
	}
	return io.ErrUnexpectedEOF
}

// LastEventID returns the id of the last event received.
func (s *Stream) LastEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEventID
}

func (s *Stream) retryDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retry
}

// Close stops reading and waits for the reader to exit.
func (s *Stream) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
