package database

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStream(rows map[int64]string) *ListenStream {
	nop := zerolog.Nop()
	s := NewListenStream(nil, "", true, &nop)
	s.load = func(_ context.Context, id int64) (StoredFact, error) {
		env, ok := rows[id]
		if !ok {
			return StoredFact{}, errors.New("no rows")
		}
		return StoredFact{ID: id, Envelope: []byte(env)}, nil
	}
	s.since = func(_ context.Context, after int64) ([]StoredFact, error) {
		var out []StoredFact
		for id := after + 1; id <= int64(len(rows)); id++ {
			out = append(out, StoredFact{ID: id, Envelope: []byte(rows[id])})
		}
		return out, nil
	}
	return s
}

func TestPayloadID(t *testing.T) {
	cases := map[string]struct {
		id int64
		ok bool
	}{
		"42":            {42, true},
		" 7 ":           {7, true},
		"0":             {0, false},
		"-3":            {-3, false},
		`{"type":"x"}`:  {0, false},
		"session-moved": {0, false},
		"":              {0, false},
	}
	for payload, want := range cases {
		id, ok := payloadID(payload)
		assert.Equal(t, want.ok, ok, payload)
		if ok {
			assert.Equal(t, want.id, id, payload)
		}
	}
}

func TestListenStream_ResolveInlineEnvelope(t *testing.T) {
	s := newTestStream(nil)

	data, err := s.resolve(context.Background(), `{"type":"session-suggested"}`)

	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"session-suggested"}`, string(data))
}

func TestListenStream_ResolveRowOnce(t *testing.T) {
	s := newTestStream(map[int64]string{1: `{"type":"session-suggested"}`})
	ctx := context.Background()

	data, err := s.resolve(ctx, "1")
	require.NoError(t, err)
	assert.NotNil(t, data)

	data, err = s.resolve(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, data, "a row is delivered once")

	_, err = s.resolve(ctx, "9")
	assert.Error(t, err)
}

func TestListenStream_CatchUpSkipsSeenRows(t *testing.T) {
	s := newTestStream(map[int64]string{1: `{"id":1}`, 2: `{"id":2}`, 3: `{"id":3}`})
	s.advance(1)

	msgs := make(chan []byte, 8)
	require.NoError(t, s.catchUp(context.Background(), msgs))
	close(msgs)

	var got []string
	for m := range msgs {
		got = append(got, string(m))
	}
	assert.Equal(t, []string{`{"id":2}`, `{"id":3}`}, got)
	assert.Equal(t, int64(3), s.last())
}

func TestListenStream_OpenWithoutPool(t *testing.T) {
	s := newTestStream(nil)
	_, _, err := s.Open(context.Background())
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
