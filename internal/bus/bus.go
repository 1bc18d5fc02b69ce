// Package bus is the notification bus every component publishes facts to
// and subscribes on.
//
// Delivery is sequential: one fact at a time, to every matching subscriber
// in subscription order, each handler running to completion before the next
// one starts. Facts published from inside a handler are queued behind the
// fact being delivered, so a derived fact is only seen once every
// subscriber has handled its cause.
package bus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain/entities"
	"spacyboard/internal/ports/input"
)

type subscription struct {
	name    string
	handler input.FactHandler
	types   map[entities.FactType]struct{}
	active  atomic.Bool
}

func (s *subscription) wants(t entities.FactType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Bus is a typed publish/subscribe channel scoped to the application's
// lifetime.
type Bus struct {
	mu      sync.Mutex
	subs    []*subscription
	pending []entities.Fact
	closed  bool

	wake     chan struct{}
	dispatch sync.Mutex
	logger   *zerolog.Logger
}

// New creates an empty bus.
func New(logger *zerolog.Logger) *Bus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bus{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Subscribe registers handler for the given fact types (all types when none
// are given). The returned func removes the subscription.
func (b *Bus) Subscribe(name string, handler input.FactHandler, types ...entities.FactType) (unsubscribe func()) {
	sub := &subscription{name: name, handler: handler}
	if len(types) > 0 {
		sub.types = make(map[entities.FactType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}
	sub.active.Store(true)

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	total := len(b.subs)
	b.mu.Unlock()

	b.logger.Debug().
		Str("subscriber", name).
		Int("total_subscribers", total).
		Msg("Subscriber registered")

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub) })
	}
}

func (b *Bus) remove(sub *subscription) {
	sub.active.Store(false)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	b.logger.Debug().
		Str("subscriber", sub.name).
		Int("total_subscribers", len(b.subs)).
		Msg("Subscriber unregistered")
}

// Publish queues fact for delivery. It never blocks and never drops a fact
// while the bus is open.
func (b *Bus) Publish(fact entities.Fact) {
	if fact == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Debug().Str("fact", string(fact.Type())).Msg("Bus closed, fact dropped")
		return
	}
	b.pending = append(b.pending, fact)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Drain delivers queued facts, including those published while draining,
// until none is left. It returns the number of facts delivered. When another
// goroutine is already draining, Drain returns 0 immediately: the running
// drain picks up everything queued. Handlers must not call Drain.
func (b *Bus) Drain(ctx context.Context) int {
	if !b.dispatch.TryLock() {
		return 0
	}
	defer b.dispatch.Unlock()

	delivered := 0
	for {
		fact, subs, ok := b.next()
		if !ok {
			return delivered
		}
		for _, sub := range subs {
			if !sub.active.Load() || !sub.wants(fact.Type()) {
				continue
			}
			b.deliver(ctx, sub, fact)
		}
		delivered++
		b.logger.Trace().
			Str("fact", string(fact.Type())).
			Int("subscribers", len(subs)).
			Msg("Fact delivered")
	}
}

func (b *Bus) next() (entities.Fact, []*subscription, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil, nil, false
	}
	fact := b.pending[0]
	b.pending[0] = nil
	b.pending = b.pending[1:]
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	return fact, subs, true
}

func (b *Bus) deliver(ctx context.Context, sub *subscription, fact entities.Fact) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("subscriber", sub.name).
				Str("fact", string(fact.Type())).
				Err(fmt.Errorf("panic: %v", r)).
				Msg("Fact handler panicked")
		}
	}()
	sub.handler.HandleFact(ctx, fact)
}

// Run delivers facts as they are published until ctx is cancelled, then
// releases every subscription and closes the bus.
func (b *Bus) Run(ctx context.Context) error {
	b.logger.Info().Int("subscribers", b.SubscriberCount()).Msg("Bus started")
	for {
		b.Drain(ctx)
		select {
		case <-ctx.Done():
			b.shutdown()
			return nil
		case <-b.wake:
		}
	}
}

func (b *Bus) shutdown() {
	b.mu.Lock()
	for _, s := range b.subs {
		s.active.Store(false)
	}
	b.subs = nil
	dropped := len(b.pending)
	b.pending = nil
	b.closed = true
	b.mu.Unlock()

	b.logger.Info().Int("dropped", dropped).Msg("Bus shut down")
}

// Pending returns the number of facts waiting for delivery.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
