package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacyboard/internal/domain"
	"spacyboard/internal/domain/entities"
)

func TestBulletinBoard_MaterializesThenRefreshes(t *testing.T) {
	b := newBus()
	include := &fakeInclude{}
	require.NoError(t, NewBulletinBoard(include, &nop).Attach(b))

	deliver(b, schedule("alice", "1", r1at10))
	assert.Equal(t, 1, include.materializes)
	assert.Zero(t, include.refreshes)

	deliver(b, deleted("1"), entities.NobodyInQueue{}, entities.SessionMoved{Session: session("2", "x"), Slot: r2at10})
	assert.Equal(t, 1, include.materializes)
	assert.Equal(t, 3, include.refreshes)
}

func TestBulletinBoard_IgnoresSuggestions(t *testing.T) {
	b := newBus()
	include := &fakeInclude{}
	require.NoError(t, NewBulletinBoard(include, &nop).Attach(b))

	deliver(b, suggest("alice", "1"))

	assert.Zero(t, include.materializes)
	assert.Zero(t, include.refreshes)
}

func TestBulletinBoard_RedeliveryIsIdempotent(t *testing.T) {
	once, twice := &fakeInclude{}, &fakeInclude{}

	b1 := newBus()
	require.NoError(t, NewBulletinBoard(once, &nop).Attach(b1))
	deliver(b1, schedule("alice", "1", r1at10))

	b2 := newBus()
	require.NoError(t, NewBulletinBoard(twice, &nop).Attach(b2))
	deliver(b2, schedule("alice", "1", r1at10), schedule("alice", "1", r1at10))

	assert.Equal(t, once.content, twice.content)
	assert.Equal(t, once.materialized, twice.materialized)
}

func TestBulletinBoard_IncludeErrorsAreSwallowed(t *testing.T) {
	b := newBus()
	include := &fakeInclude{err: errors.New("boom")}
	require.NoError(t, NewBulletinBoard(include, &nop).Attach(b))

	assert.NotPanics(t, func() { deliver(b, schedule("alice", "1", r1at10)) })
	assert.Equal(t, 1, include.materializes)
}

func TestBulletinBoard_DisabledWithoutInclude(t *testing.T) {
	err := NewBulletinBoard(nil, &nop).Attach(newBus())
	assert.ErrorIs(t, err, domain.ErrMissingCollaborator)
}
