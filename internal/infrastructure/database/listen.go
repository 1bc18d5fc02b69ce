package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
)

var _ output.FactStream = (*ListenStream)(nil)

// ListenStream is a fact stream over Postgres LISTEN/NOTIFY. A payload is
// either an envelope or the id of a board_facts row holding one.
type ListenStream struct {
	pool    *pgxpool.Pool
	channel string
	replay  bool
	logger  *zerolog.Logger

	load  func(ctx context.Context, id int64) (StoredFact, error)
	since func(ctx context.Context, after int64) ([]StoredFact, error)

	mu     sync.Mutex
	lastID int64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewListenStream listens on channel. With replay, every Open first sends
// the logged facts newer than the last one seen.
func NewListenStream(pool *pgxpool.Pool, channel string, replay bool, logger *zerolog.Logger) *ListenStream {
	if channel == "" {
		channel = DefaultChannel
	}
	s := &ListenStream{
		pool:    pool,
		channel: channel,
		replay:  replay,
		logger:  logging.Component(logger, "pg-listen"),
	}
	s.load = func(ctx context.Context, id int64) (StoredFact, error) { return FactByID(ctx, s.pool, id) }
	s.since = func(ctx context.Context, after int64) ([]StoredFact, error) { return FactsSince(ctx, s.pool, after) }
	return s
}

func (s *ListenStream) Open(ctx context.Context) (<-chan []byte, <-chan error, error) {
	if s.pool == nil {
		return nil, nil, fmt.Errorf("pg listen: %w", domain.ErrMissingCollaborator)
	}
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("pg listen: acquire: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, nil, fmt.Errorf("pg listen %s: %w", s.channel, err)
	}
	s.logger.Info().Str("channel", s.channel).Msg("✅ Listening for facts")

	ctx, cancel := context.WithCancel(ctx)
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
		defer func() {
			if _, err := conn.Exec(context.Background(), "UNLISTEN *"); err != nil {
				s.logger.Debug().Err(err).Msg("UNLISTEN failed")
			}
			conn.Release()
		}()

		if err := s.run(ctx, conn.Conn(), msgs); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()
	return msgs, errs, nil
}

func (s *ListenStream) run(ctx context.Context, conn *pgx.Conn, msgs chan<- []byte) error {
	if s.replay {
		if err := s.catchUp(ctx, msgs); err != nil {
			return err
		}
	}
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("pg listen %s: %w", s.channel, err)
		}
		data, err := s.resolve(ctx, n.Payload)
		if err != nil {
			s.logger.Warn().Err(err).Str("payload", n.Payload).Msg("Notification skipped")
			continue
		}
		if data == nil {
			continue
		}
		select {
		case msgs <- data:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *ListenStream) catchUp(ctx context.Context, msgs chan<- []byte) error {
	facts, err := s.since(ctx, s.last())
	if err != nil {
		return err
	}
	if len(facts) > 0 {
		s.logger.Info().Int("facts", len(facts)).Msg("Replaying fact log")
	}
	for _, f := range facts {
		if !s.advance(f.ID) {
			continue
		}
		select {
		case msgs <- f.Envelope:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// resolve returns the envelope a payload stands for, or nil when the row
// was already delivered.
func (s *ListenStream) resolve(ctx context.Context, payload string) ([]byte, error) {
	id, ok := payloadID(payload)
	if !ok {
		return []byte(payload), nil
	}
	if id <= s.last() {
		return nil, nil
	}
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.advance(f.ID) {
		return nil, nil
	}
	return f.Envelope, nil
}

func (s *ListenStream) last() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

func (s *ListenStream) advance(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id <= s.lastID {
		return false
	}
	s.lastID = id
	return true
}

// Close stops listening and waits for the connection to go back to the
// pool.
func (s *ListenStream) Close() error {
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

func payloadID(payload string) (int64, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" || strings.HasPrefix(payload, "{") {
		return 0, false
	}
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, id > 0
}
