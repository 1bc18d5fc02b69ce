package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionID_UnmarshalJSON(t *testing.T) {
	for raw, want := range map[string]SessionID{
		`"42"`:  "42",
		`" 7 "`: "7",
		`42`:    "42",
		`null`:  "",
		`1.5e3`: "1500",
		`1.0`:   "1",
		`1e0`:   "1",
		`-3`:    "-3",
		`2.25`:  "2.25",
	} {
		var id SessionID
		require.NoError(t, json.Unmarshal([]byte(raw), &id), raw)
		assert.Equal(t, want, id, raw)
	}

	var id SessionID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestParseFactType(t *testing.T) {
	for _, ft := range FactTypes {
		got, ok := ParseFactType(string(ft))
		require.True(t, ok)
		assert.Equal(t, ft, got)
	}
	_, ok := ParseFactType("coffee-break")
	assert.False(t, ok)
}

func TestNobodyInQueueIsAnUpNext(t *testing.T) {
	var f Fact = NobodyInQueue{}
	assert.Equal(t, FactUpNext, f.Type())
	assert.Equal(t, "nobody-in-queue", NobodyInQueue{}.String())
}

func TestFields(t *testing.T) {
	s := Session{ID: "1", Title: "Go"}
	slot := Slot{Room: "R1", Time: "10:00"}

	f := Fields(SessionMoved{Sponsor: "alice", Session: s, Slot: slot})

	assert.Equal(t, FactSessionMoved, f.Type)
	assert.Equal(t, "alice", f.Sponsor)
	assert.Equal(t, s, f.Session)
	assert.Equal(t, slot, f.Slot)
	assert.Equal(t, "R1@10:00", slot.String())
	assert.True(t, Slot{}.IsZero())
	assert.NotEqual(t, Slot{Room: "R1", Time: "0"}.Key(), Slot{Room: "R1@", Time: "0"}.Key())
}
