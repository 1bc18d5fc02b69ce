package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"spacyboard/internal/domain/entities"
	"spacyboard/internal/ports/output"
)

var (
	r1at10 = entities.Slot{Room: "R1", Time: "10:00"}
	r2at10 = entities.Slot{Room: "R2", Time: "10:00"}
)

func TestConsole_RendersEveryView(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, []entities.Slot{r1at10, r2at10}, false)
	talk := entities.Session{ID: "1", Title: "Go"}

	c.Append(entities.QueueEntry{Sponsor: "alice", Session: talk})
	c.ShowClaim(entities.ClaimAction{Slot: r2at10, SessionID: "1", Sponsor: "alice"})
	c.SetStatus("up-next", "You are up next")
	c.Show(context.Background(), output.Notification{Fact: entities.FactUpNext, Text: "Pick a slot"})

	frame := c.Render()
	assert.Contains(t, frame, "You are up next")
	assert.Contains(t, frame, "Pick a slot")
	assert.Contains(t, frame, "#1 Go")
	assert.Contains(t, frame, "[claim #1]")
	assert.Contains(t, frame, "R1")
	assert.Contains(t, frame, "10:00")
	assert.NotEmpty(t, out.String())
}

func TestConsole_ClearsState(t *testing.T) {
	c := New(&bytes.Buffer{}, []entities.Slot{r1at10}, false)
	s := entities.Session{ID: "7", Title: "Rust"}

	c.Append(entities.QueueEntry{Sponsor: "bob", Session: s})
	c.Remove("7")
	c.ShowSession(r1at10, "bob", s)
	c.Show(context.Background(), output.Notification{Text: "hello"})
	c.Clear(context.Background())

	frame := c.Render()
	assert.Contains(t, frame, "(empty)")
	assert.Contains(t, frame, "#7 Rust")
	assert.NotContains(t, frame, "hello")

	c.ClearSession(r1at10)
	assert.NotContains(t, c.Render(), "Rust")
}

func TestConsole_Schedule(t *testing.T) {
	c := New(&bytes.Buffer{}, nil, true)
	c.SetSchedule("R1 10:00 Go")
	assert.Contains(t, c.Render(), "R1 10:00 Go")
}
