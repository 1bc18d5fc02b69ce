package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"spacyboard/internal/bus"
	"spacyboard/internal/domain/entities"
	"spacyboard/internal/ports/output"
)

var nop = zerolog.Nop()

// fakeQueueView records the rendered queue.
type fakeQueueView struct {
	ids []entities.SessionID
}

func (v *fakeQueueView) Append(e entities.QueueEntry) { v.ids = append(v.ids, e.Session.ID) }

func (v *fakeQueueView) Remove(id entities.SessionID) {
	for i, x := range v.ids {
		if x == id {
			v.ids = append(v.ids[:i], v.ids[i+1:]...)
			return
		}
	}
}

type renderedCell struct {
	session *entities.Session
	claim   *entities.ClaimAction
}

// fakeSlotView renders cells and fails the test when a cell ever shows a
// session and a claim at once.
type fakeSlotView struct {
	t     *testing.T
	cells map[entities.Slot]*renderedCell
	calls []string
}

func newFakeSlotView(t *testing.T) *fakeSlotView {
	return &fakeSlotView{t: t, cells: map[entities.Slot]*renderedCell{}}
}

func (v *fakeSlotView) cell(s entities.Slot) *renderedCell {
	c, ok := v.cells[s]
	if !ok {
		c = &renderedCell{}
		v.cells[s] = c
	}
	return c
}

func (v *fakeSlotView) check(s entities.Slot) {
	c := v.cell(s)
	if c.session != nil && c.claim != nil {
		v.t.Errorf("slot %s shows session %s and a claim at once", s, c.session.ID)
	}
}

func (v *fakeSlotView) ShowSession(s entities.Slot, _ string, session entities.Session) {
	v.calls = append(v.calls, "show-session "+s.String())
	c := v.cell(s)
	if c.session != nil {
		v.t.Errorf("slot %s shows two sessions", s)
	}
	c.session = &session
	v.check(s)
}

func (v *fakeSlotView) ClearSession(s entities.Slot) {
	v.calls = append(v.calls, "clear-session "+s.String())
	v.cell(s).session = nil
}

func (v *fakeSlotView) ShowClaim(a entities.ClaimAction) {
	v.calls = append(v.calls, "show-claim "+a.Slot.String())
	c := v.cell(a.Slot)
	if c.claim != nil {
		v.t.Errorf("slot %s shows two claims", a.Slot)
	}
	c.claim = &a
	v.check(a.Slot)
}

func (v *fakeSlotView) ClearClaim(s entities.Slot) {
	v.calls = append(v.calls, "clear-claim "+s.String())
	v.cell(s).claim = nil
}

func (v *fakeSlotView) sessionAt(s entities.Slot) entities.SessionID {
	if c := v.cells[s]; c != nil && c.session != nil {
		return c.session.ID
	}
	return ""
}

func (v *fakeSlotView) claimAt(s entities.Slot) *entities.ClaimAction {
	if c := v.cells[s]; c != nil {
		return c.claim
	}
	return nil
}

type fakeStatusView struct {
	status, text string
}

func (v *fakeStatusView) SetStatus(status, text string) { v.status, v.text = status, text }

type fakeNotificationView struct {
	current *output.Notification
	shows   int
	clears  int
}

func (v *fakeNotificationView) Show(_ context.Context, n output.Notification) {
	v.shows++
	v.current = &n
}

func (v *fakeNotificationView) Clear(context.Context) {
	v.clears++
	v.current = nil
}

// fakeInclude counts materializations and refreshes; content is the
// number of "schedule versions" fetched, which stays stable on refetch.
type fakeInclude struct {
	materialized bool
	materializes int
	refreshes    int
	content      string
	err          error
}

func (f *fakeInclude) Materialized() bool { return f.materialized }

func (f *fakeInclude) Materialize(context.Context) error {
	f.materializes++
	f.materialized = true
	f.content = "schedule"
	return f.err
}

func (f *fakeInclude) Refresh(context.Context) error {
	f.refreshes++
	f.content = "schedule"
	return f.err
}

// fakeTranslator renders "key|Field=value,..." for known keys.
type fakeTranslator struct {
	known map[string]bool
}

func newFakeTranslator(keys ...string) *fakeTranslator {
	t := &fakeTranslator{known: map[string]bool{}}
	for _, k := range keys {
		t.known[k] = true
	}
	return t
}

func (f *fakeTranslator) T(locale, key string, data map[string]any) string {
	if msg, ok := f.Lookup(locale, key, data); ok {
		return msg
	}
	return key
}

func (f *fakeTranslator) Lookup(_, key string, data map[string]any) (string, bool) {
	if !f.known[key] {
		return "", false
	}
	var b strings.Builder
	b.WriteString(key)
	for _, field := range []string{"Title", "Sponsor", "Room", "Time"} {
		if v, ok := data[field]; ok && v != "" {
			fmt.Fprintf(&b, "|%s=%v", field, v)
		}
	}
	return b.String(), true
}

type fakeSubmitter struct {
	mu    sync.Mutex
	forms []output.Form
}

func (f *fakeSubmitter) Submit(_ context.Context, form output.Form) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forms = append(f.forms, form)
}

// upNextLog subscribes last and records every up-next fact in order.
type upNextLog struct {
	facts []entities.Fact
}

func (l *upNextLog) HandleFact(_ context.Context, f entities.Fact) { l.facts = append(l.facts, f) }

func (l *upNextLog) last() entities.Fact {
	if len(l.facts) == 0 {
		return nil
	}
	return l.facts[len(l.facts)-1]
}

func newBus() *bus.Bus { return bus.New(&nop) }

func session(id, title string) entities.Session {
	return entities.Session{ID: entities.SessionID(id), Title: title}
}

func suggest(sponsor, id string) entities.SessionSuggested {
	return entities.SessionSuggested{Sponsor: sponsor, Session: session(id, "talk "+id)}
}

func schedule(sponsor, id string, slot entities.Slot) entities.SessionScheduled {
	return entities.SessionScheduled{Sponsor: sponsor, Session: session(id, "talk "+id), Slot: slot}
}

func deleted(id string) entities.SessionDeleted {
	return entities.SessionDeleted{Session: entities.Session{ID: entities.SessionID(id)}}
}

func deliver(b *bus.Bus, facts ...entities.Fact) {
	for _, f := range facts {
		b.Publish(f)
	}
	b.Drain(context.Background())
}

var (
	r1at10 = entities.Slot{Room: "R1", Time: "10:00"}
	r1at11 = entities.Slot{Room: "R1", Time: "11:00"}
	r2at10 = entities.Slot{Room: "R2", Time: "10:00"}
)
