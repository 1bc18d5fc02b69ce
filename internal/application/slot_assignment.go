package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/domain/entities"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/input"
	"spacyboard/internal/ports/output"
)

var _ input.FactHandler = (*SlotCell)(nil)

// CellState is a snapshot of one slot cell. Occupant and Claim are never
// both set.
type CellState struct {
	Slot     entities.Slot
	Sponsor  string
	Occupant *entities.Session
	Claim    *entities.ClaimAction
}

// SlotCell is one (room, time) cell. It holds at most one session, or, when
// empty, at most one claim action for the viewing user.
type SlotCell struct {
	slot   entities.Slot
	viewer string

	mu       sync.RWMutex
	sponsor  string
	occupant *entities.Session
	claim    *entities.ClaimAction

	view   output.SlotView
	head   input.QueueHead
	logger *zerolog.Logger
}

// NewSlotCell creates an empty cell for slot as seen by viewer.
func NewSlotCell(slot entities.Slot, viewer string, view output.SlotView, head input.QueueHead, logger *zerolog.Logger) *SlotCell {
	l := logging.Component(logger, "slot").With().Str("room", slot.Room).Str("time", slot.Time).Logger()
	return &SlotCell{
		slot:   slot,
		viewer: viewer,
		view:   view,
		head:   head,
		logger: &l,
	}
}

// Slot returns the cell identity.
func (c *SlotCell) Slot() entities.Slot { return c.slot }

func (c *SlotCell) HandleFact(_ context.Context, fact entities.Fact) {
	switch f := fact.(type) {
	case entities.UpNext:
		c.offer(f)
	case entities.NobodyInQueue:
		c.clearClaim()
	case entities.SessionScheduled:
		c.clearClaim()
		c.vacate(f.Session.ID, f.Slot)
		if f.Slot == c.slot {
			c.place(f.Sponsor, f.Session, domain.StatusScheduled)
			return
		}
		// up-next is only republished when the head changes.
		c.offerHead()
	case entities.SessionDeleted:
		c.clearClaimFor(f.Session.ID)
		if c.vacate(f.Session.ID, entities.Slot{}) {
			c.offerHead()
		}
	case entities.SessionMoved:
		c.vacate(f.Session.ID, f.Slot)
		c.clearClaim()
		if f.Slot == c.slot {
			c.place(f.Sponsor, f.Session, domain.StatusMoved)
		}
		c.offerHead()
	case entities.SessionSuggested:
	}
}

// offer appends the claim action only when it needs to: the cell must be
// empty and offer-free, and the viewer must be the sponsor up next. A claim
// left over for another session is withdrawn first.
func (c *SlotCell) offer(next entities.UpNext) {
	if next.Sponsor == "" || next.Session.ID.IsZero() {
		return
	}

	c.mu.Lock()
	var withdrawn bool
	if c.claim != nil && c.claim.SessionID != next.Session.ID {
		c.claim = nil
		withdrawn = true
	}
	offered := c.occupant == nil && c.claim == nil && c.viewer != "" && c.viewer == next.Sponsor
	var action entities.ClaimAction
	if offered {
		action = entities.ClaimAction{Slot: c.slot, SessionID: next.Session.ID, Sponsor: next.Sponsor}
		c.claim = &action
	}
	c.mu.Unlock()

	if withdrawn {
		c.view.ClearClaim(c.slot)
	}
	if offered {
		c.view.ShowClaim(action)
		c.logger.Debug().Str("session_id", action.SessionID.String()).Msg("Claim offered")
	}
}

func (c *SlotCell) offerHead() {
	if c.head == nil {
		return
	}
	if next, ok := c.head.Head(); ok {
		c.offer(next)
	}
}

func (c *SlotCell) clearClaim() {
	c.mu.Lock()
	had := c.claim != nil
	c.claim = nil
	c.mu.Unlock()

	if had {
		c.view.ClearClaim(c.slot)
	}
}

func (c *SlotCell) clearClaimFor(id entities.SessionID) {
	c.mu.RLock()
	match := c.claim != nil && c.claim.SessionID == id
	c.mu.RUnlock()
	if match {
		c.clearClaim()
	}
}

// place renders session as the occupant. The same session twice is a no-op;
// a different occupant is replaced since a slot holds one session.
func (c *SlotCell) place(sponsor string, session entities.Session, status string) {
	if session.ID.IsZero() {
		return
	}

	c.mu.Lock()
	if c.occupant != nil && c.occupant.ID == session.ID {
		c.mu.Unlock()
		return
	}
	previous := c.occupant
	s := session
	c.occupant = &s
	c.sponsor = sponsor
	c.mu.Unlock()

	if previous != nil {
		c.logger.Warn().
			Str("previous_session_id", previous.ID.String()).
			Str("session_id", session.ID.String()).
			Msg("Slot already occupied, replacing occupant")
		c.view.ClearSession(c.slot)
	}
	c.view.ShowSession(c.slot, sponsor, session)
	c.logger.Info().Str("session_id", session.ID.String()).Str("status", status).Msg("Session placed")
}

// vacate removes the occupant when it is id and this cell is not dest. It
// reports whether the cell was emptied.
func (c *SlotCell) vacate(id entities.SessionID, dest entities.Slot) bool {
	if id.IsZero() || dest == c.slot {
		return false
	}

	c.mu.Lock()
	if c.occupant == nil || c.occupant.ID != id {
		c.mu.Unlock()
		return false
	}
	c.occupant = nil
	c.sponsor = ""
	c.mu.Unlock()

	c.view.ClearSession(c.slot)
	c.logger.Info().Str("session_id", id.String()).Msg("Session removed from slot")
	return true
}

// State returns a snapshot of the cell.
func (c *SlotCell) State() CellState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := CellState{Slot: c.slot, Sponsor: c.sponsor}
	if c.occupant != nil {
		s := *c.occupant
		st.Occupant = &s
	}
	if c.claim != nil {
		a := *c.claim
		st.Claim = &a
	}
	return st
}

// SlotGrid owns one cell per (room, time) and the claim workflow.
type SlotGrid struct {
	cells    []*SlotCell
	byKey    map[string]*SlotCell
	view     output.SlotView
	commands input.SessionCommands
	logger   *zerolog.Logger

	unsubscribe []func()
}

// NewSlotGrid builds the cells for slots, in order. Duplicate slots are
// collapsed.
func NewSlotGrid(slots []entities.Slot, viewer string, view output.SlotView, head input.QueueHead, commands input.SessionCommands, logger *zerolog.Logger) *SlotGrid {
	g := &SlotGrid{
		byKey:    make(map[string]*SlotCell, len(slots)),
		view:     view,
		commands: commands,
		logger:   logging.Component(logger, "slot-grid"),
	}
	for _, s := range slots {
		if _, ok := g.byKey[s.Key()]; ok {
			continue
		}
		cell := NewSlotCell(s, viewer, view, head, logger)
		g.cells = append(g.cells, cell)
		g.byKey[s.Key()] = cell
	}
	return g
}

// Attach subscribes every cell, in grid order, as its own subscriber.
func (g *SlotGrid) Attach(b output.Subscriber) error {
	if g.view == nil || b == nil {
		g.logger.Warn().Msg("Slot grid disabled: no view or bus")
		return fmt.Errorf("slot grid: %w", domain.ErrMissingCollaborator)
	}
	for _, cell := range g.cells {
		g.unsubscribe = append(g.unsubscribe, b.Subscribe("slot:"+cell.slot.String(), cell))
	}
	return nil
}

// Detach removes every cell from the bus.
func (g *SlotGrid) Detach() {
	for _, u := range g.unsubscribe {
		u()
	}
	g.unsubscribe = nil
}

// Cell returns the cell for slot.
func (g *SlotGrid) Cell(slot entities.Slot) (*SlotCell, bool) {
	c, ok := g.byKey[slot.Key()]
	return c, ok
}

// Cells returns the cells in grid order.
func (g *SlotGrid) Cells() []*SlotCell {
	return append([]*SlotCell(nil), g.cells...)
}

// Claim asks the server to schedule the offered session into slot. It only
// succeeds when that cell currently shows a claim action; the cell itself
// changes when the resulting fact arrives.
func (g *SlotGrid) Claim(ctx context.Context, slot entities.Slot) error {
	cell, ok := g.Cell(slot)
	if !ok {
		return fmt.Errorf("claim %s: %w", slot, domain.ErrSlotNotFound)
	}
	st := cell.State()
	if st.Claim == nil {
		return fmt.Errorf("claim %s: %w", slot, domain.ErrNoClaimAction)
	}
	if g.commands == nil {
		return fmt.Errorf("claim %s: %w", slot, domain.ErrMissingCollaborator)
	}
	return g.commands.Claim(ctx, slot, st.Claim.SessionID)
}
