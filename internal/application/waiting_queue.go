package application

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/domain/entities"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/input"
	"spacyboard/internal/ports/output"
)

var (
	_ input.FactHandler = (*WaitingQueue)(nil)
	_ input.QueueHead   = (*WaitingQueue)(nil)
)

// WaitingQueue keeps suggested sessions in arrival order and publishes who
// is up next whenever the head changes.
type WaitingQueue struct {
	mu      sync.RWMutex
	entries []entities.QueueEntry

	view   output.QueueView
	bus    output.Publisher
	logger *zerolog.Logger

	unsubscribe func()
}

// NewWaitingQueue creates an empty queue rendering into view.
func NewWaitingQueue(view output.QueueView, logger *zerolog.Logger) *WaitingQueue {
	return &WaitingQueue{
		view:   view,
		logger: logging.Component(logger, "waiting-queue"),
	}
}

// Attach subscribes the queue to b. Without a view the queue stays inert.
func (q *WaitingQueue) Attach(b output.Bus) error {
	if q.view == nil || b == nil {
		q.logger.Warn().Msg("Waiting queue disabled: no view or bus")
		return fmt.Errorf("waiting queue: %w", domain.ErrMissingCollaborator)
	}
	q.bus = b
	q.unsubscribe = b.Subscribe("waiting-queue", q,
		entities.FactSessionSuggested,
		entities.FactSessionScheduled,
		entities.FactSessionDeleted,
	)
	return nil
}

// Detach removes the queue from the bus.
func (q *WaitingQueue) Detach() {
	if q.unsubscribe != nil {
		q.unsubscribe()
		q.unsubscribe = nil
	}
}

func (q *WaitingQueue) HandleFact(_ context.Context, fact entities.Fact) {
	switch f := fact.(type) {
	case entities.SessionSuggested:
		q.enqueue(f.Sponsor, f.Session)
	case entities.SessionScheduled:
		q.remove(f.Session.ID, domain.StatusScheduled)
	case entities.SessionDeleted:
		q.remove(f.Session.ID, domain.StatusDeleted)
	case entities.SessionMoved, entities.UpNext, entities.NobodyInQueue:
	}
}

func (q *WaitingQueue) enqueue(sponsor string, session entities.Session) {
	if sponsor == "" || session.ID.IsZero() {
		q.logger.Debug().
			Str("sponsor", sponsor).
			Str("session_id", session.ID.String()).
			Msg("Suggested session without sponsor or id, ignored")
		return
	}

	q.mu.Lock()
	if q.indexLocked(session.ID) >= 0 {
		q.mu.Unlock()
		q.logger.Debug().
			Str("session_id", session.ID.String()).
			Str("status", domain.StatusSuggested).
			Msg("Session already queued")
		return
	}
	entry := entities.QueueEntry{Sponsor: sponsor, Session: session}
	q.entries = append(q.entries, entry)
	first := len(q.entries) == 1
	q.mu.Unlock()

	q.view.Append(entry)
	q.logger.Info().
		Str("session_id", session.ID.String()).
		Str("sponsor", sponsor).
		Str("status", domain.StatusQueued).
		Bool("head", first).
		Msg("Session queued")

	if first {
		q.publish(entities.UpNext{Sponsor: sponsor, Session: session})
	}
}

func (q *WaitingQueue) remove(id entities.SessionID, reason string) {
	if id.IsZero() {
		return
	}

	q.mu.Lock()
	i := q.indexLocked(id)
	if i < 0 {
		q.mu.Unlock()
		return
	}
	q.entries = slices.Delete(q.entries, i, i+1)
	var next entities.Fact = entities.NobodyInQueue{}
	if len(q.entries) > 0 {
		next = entities.UpNext{Sponsor: q.entries[0].Sponsor, Session: q.entries[0].Session}
	}
	q.mu.Unlock()

	q.view.Remove(id)
	q.logger.Info().
		Str("session_id", id.String()).
		Str("status", reason).
		Bool("was_head", i == 0).
		Msg("Session left the queue")

	if i == 0 {
		q.publish(next)
	}
}

func (q *WaitingQueue) indexLocked(id entities.SessionID) int {
	return slices.IndexFunc(q.entries, func(e entities.QueueEntry) bool {
		return e.Session.ID == id
	})
}

func (q *WaitingQueue) publish(fact entities.Fact) {
	if q.bus == nil {
		return
	}
	q.bus.Publish(fact)
}

// Head returns the sponsor and session that are up next.
func (q *WaitingQueue) Head() (entities.UpNext, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.entries) == 0 {
		return entities.UpNext{}, false
	}
	return entities.UpNext{Sponsor: q.entries[0].Sponsor, Session: q.entries[0].Session}, true
}

// snapshot returns a copy of the queue in order.
func (q *WaitingQueue) snapshot() []entities.QueueEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return slices.Clone(q.entries)
}

// Announce publishes the current head, or the sentinel when empty.
func (q *WaitingQueue) Announce() {
	if head, ok := q.Head(); ok {
		q.publish(head)
		return
	}
	q.publish(entities.NobodyInQueue{})
}
