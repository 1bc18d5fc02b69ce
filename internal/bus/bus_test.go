package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacyboard/internal/domain/entities"
	"spacyboard/internal/ports/input"
)

type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) handler(name string) input.FactHandler {
	return input.FactHandlerFunc(func(_ context.Context, f entities.Fact) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.log = append(r.log, name+":"+string(f.Type()))
	})
}

func (r *recorder) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func suggested(id string) entities.SessionSuggested {
	return entities.SessionSuggested{Sponsor: "alice", Session: entities.Session{ID: entities.SessionID(id)}}
}

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	b := New(nil)
	rec := &recorder{}
	b.Subscribe("first", rec.handler("first"))
	b.Subscribe("second", rec.handler("second"))

	b.Publish(suggested("1"))
	b.Publish(entities.NobodyInQueue{})

	assert.Equal(t, 2, b.Drain(context.Background()))
	assert.Equal(t, []string{
		"first:session-suggested",
		"second:session-suggested",
		"first:up-next",
		"second:up-next",
	}, rec.entries())
	assert.Zero(t, b.Pending())
}

func TestBus_FiltersByType(t *testing.T) {
	b := New(nil)
	rec := &recorder{}
	b.Subscribe("upnext", rec.handler("upnext"), entities.FactUpNext)

	b.Publish(suggested("1"))
	b.Publish(entities.UpNext{Sponsor: "alice"})
	b.Drain(context.Background())

	assert.Equal(t, []string{"upnext:up-next"}, rec.entries())
}

func TestBus_DerivedFactDeliveredAfterCause(t *testing.T) {
	b := New(nil)
	rec := &recorder{}

	b.Subscribe("deriver", input.FactHandlerFunc(func(ctx context.Context, f entities.Fact) {
		rec.handler("deriver").HandleFact(ctx, f)
		if f.Type() == entities.FactSessionSuggested {
			b.Publish(entities.UpNext{Sponsor: "alice"})
		}
	}))
	b.Subscribe("late", rec.handler("late"))

	b.Publish(suggested("1"))
	assert.Equal(t, 2, b.Drain(context.Background()))

	assert.Equal(t, []string{
		"deriver:session-suggested",
		"late:session-suggested",
		"deriver:up-next",
		"late:up-next",
	}, rec.entries())
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New(nil)
	rec := &recorder{}
	unsubscribe := b.Subscribe("gone", rec.handler("gone"))
	require.Equal(t, 1, b.SubscriberCount())

	unsubscribe()
	unsubscribe()
	assert.Zero(t, b.SubscriberCount())

	b.Publish(suggested("1"))
	b.Drain(context.Background())
	assert.Empty(t, rec.entries())
}

func TestBus_RecoversFromHandlerPanic(t *testing.T) {
	b := New(nil)
	rec := &recorder{}
	b.Subscribe("boom", input.FactHandlerFunc(func(context.Context, entities.Fact) {
		panic("boom")
	}))
	b.Subscribe("after", rec.handler("after"))

	b.Publish(suggested("1"))
	b.Drain(context.Background())

	assert.Equal(t, []string{"after:session-suggested"}, rec.entries())
}

func TestBus_RunDeliversUntilCancelled(t *testing.T) {
	b := New(nil)
	got := make(chan entities.Fact, 4)
	b.Subscribe("chan", input.FactHandlerFunc(func(_ context.Context, f entities.Fact) {
		got <- f
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	b.Publish(suggested("1"))
	select {
	case f := <-got:
		assert.Equal(t, entities.FactSessionSuggested, f.Type())
	case <-time.After(2 * time.Second):
		t.Fatal("fact not delivered")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	assert.Zero(t, b.SubscriberCount())
	b.Publish(suggested("2"))
	assert.Zero(t, b.Pending(), "closed bus must not queue facts")
}
