// Package console renders the board in a terminal. Every view port of the
// board is implemented here; each change redraws the whole frame.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"spacyboard/internal/domain/entities"
	"spacyboard/internal/ports/output"
)

var (
	_ output.QueueView        = (*Console)(nil)
	_ output.SlotView         = (*Console)(nil)
	_ output.StatusView       = (*Console)(nil)
	_ output.NotificationView = (*Console)(nil)
)

const cellWidth = 24

// Theme is the color palette of the board.
type Theme struct {
	Title     lipgloss.Color
	Muted     lipgloss.Color
	Session   lipgloss.Color
	Claim     lipgloss.Color
	UpNext    lipgloss.Color
	Waiting   lipgloss.Color
	Notice    lipgloss.Color
	Separator lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	Title:     lipgloss.Color("75"),
	Muted:     lipgloss.Color("243"),
	Session:   lipgloss.Color("252"),
	Claim:     lipgloss.Color("42"),
	UpNext:    lipgloss.Color("42"),
	Waiting:   lipgloss.Color("214"),
	Notice:    lipgloss.Color("219"),
	Separator: lipgloss.Color("238"),
}

type cell struct {
	sponsor string
	session *entities.Session
	claim   *entities.ClaimAction
}

// Console is a terminal renderer for the whole board.
type Console struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	theme    Theme
	clear    bool

	rooms []string
	times []string

	mu       sync.Mutex
	queue    []entities.QueueEntry
	cells    map[string]*cell
	status   string
	text     string
	notice   *output.Notification
	schedule string
}

// New creates a console drawing to out. With clear, each frame first
// clears the screen.
func New(out io.Writer, slots []entities.Slot, clear bool) *Console {
	c := &Console{
		out:      out,
		renderer: lipgloss.NewRenderer(out),
		theme:    DefaultTheme,
		clear:    clear,
		cells:    make(map[string]*cell, len(slots)),
	}
	seenRoom, seenTime := map[string]bool{}, map[string]bool{}
	for _, s := range slots {
		if !seenRoom[s.Room] {
			seenRoom[s.Room] = true
			c.rooms = append(c.rooms, s.Room)
		}
		if !seenTime[s.Time] {
			seenTime[s.Time] = true
			c.times = append(c.times, s.Time)
		}
		c.cells[s.Key()] = &cell{}
	}
	return c
}

func (c *Console) Append(e entities.QueueEntry) {
	c.update(func() { c.queue = append(c.queue, e) })
}

func (c *Console) Remove(id entities.SessionID) {
	c.update(func() {
		for i, e := range c.queue {
			if e.Session.ID == id {
				c.queue = append(c.queue[:i], c.queue[i+1:]...)
				return
			}
		}
	})
}

func (c *Console) ShowSession(slot entities.Slot, sponsor string, session entities.Session) {
	c.update(func() {
		cl := c.cell(slot)
		cl.sponsor, cl.session = sponsor, &session
	})
}

func (c *Console) ClearSession(slot entities.Slot) {
	c.update(func() {
		cl := c.cell(slot)
		cl.sponsor, cl.session = "", nil
	})
}

func (c *Console) ShowClaim(a entities.ClaimAction) {
	c.update(func() { c.cell(a.Slot).claim = &a })
}

func (c *Console) ClearClaim(slot entities.Slot) {
	c.update(func() { c.cell(slot).claim = nil })
}

func (c *Console) SetStatus(status, text string) {
	c.update(func() { c.status, c.text = status, text })
}

func (c *Console) Show(_ context.Context, n output.Notification) {
	c.update(func() { c.notice = &n })
}

func (c *Console) Clear(context.Context) {
	c.update(func() { c.notice = nil })
}

// SetSchedule replaces the live include of the full schedule.
func (c *Console) SetSchedule(content string) {
	c.update(func() { c.schedule = content })
}

func (c *Console) cell(slot entities.Slot) *cell {
	cl, ok := c.cells[slot.Key()]
	if !ok {
		cl = &cell{}
		c.cells[slot.Key()] = cl
	}
	return cl
}

func (c *Console) update(change func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	change()
	frame := c.renderLocked()
	if c.clear {
		_, _ = io.WriteString(c.out, "\x1b[H\x1b[2J")
	}
	_, _ = io.WriteString(c.out, frame+"\n")
}

// Render returns the current frame.
func (c *Console) Render() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked()
}

func (c *Console) renderLocked() string {
	r, t := c.renderer, c.theme
	title := r.NewStyle().Bold(true).Foreground(t.Title)
	muted := r.NewStyle().Foreground(t.Muted)

	var sections []string

	status := c.text
	if status == "" {
		status = c.status
	}
	if status != "" {
		color := t.Waiting
		if c.status == "up-next" {
			color = t.UpNext
		}
		sections = append(sections, r.NewStyle().Bold(true).Foreground(color).Render(status))
	}

	if c.notice != nil {
		sections = append(sections, r.NewStyle().
			Foreground(t.Notice).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Separator).
			Padding(0, 1).
			Render(c.notice.Text))
	}

	queue := []string{title.Render("Waiting queue")}
	if len(c.queue) == 0 {
		queue = append(queue, muted.Render("  (empty)"))
	}
	for i, e := range c.queue {
		queue = append(queue, fmt.Sprintf("  %d. #%s %s %s", i+1, e.Session.ID, e.Session.Title, muted.Render("("+e.Sponsor+")")))
	}
	sections = append(sections, strings.Join(queue, "\n"))

	if len(c.rooms) > 0 {
		sections = append(sections, c.renderGrid())
	}

	if c.schedule != "" {
		sections = append(sections, title.Render("Schedule")+"\n"+c.schedule)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (c *Console) renderGrid() string {
	r, t := c.renderer, c.theme
	head := r.NewStyle().Bold(true).Foreground(t.Title).Width(cellWidth).MaxWidth(cellWidth)
	timeCol := r.NewStyle().Foreground(t.Muted).Width(8)
	session := r.NewStyle().Foreground(t.Session).Width(cellWidth).MaxWidth(cellWidth)
	claim := r.NewStyle().Bold(true).Foreground(t.Claim).Width(cellWidth).MaxWidth(cellWidth)
	empty := r.NewStyle().Foreground(t.Separator).Width(cellWidth).MaxWidth(cellWidth)

	header := []string{timeCol.Render("")}
	for _, room := range c.rooms {
		header = append(header, head.Render(room))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	for _, at := range c.times {
		row := []string{timeCol.Render(at)}
		for _, room := range c.rooms {
			cl := c.cells[entities.Slot{Room: room, Time: at}.Key()]
			switch {
			case cl == nil:
				row = append(row, empty.Render(""))
			case cl.session != nil:
				row = append(row, session.Render(fmt.Sprintf("#%s %s", cl.session.ID, cl.session.Title)))
			case cl.claim != nil:
				row = append(row, claim.Render(fmt.Sprintf("[claim #%s]", cl.claim.SessionID)))
			default:
				row = append(row, empty.Render("·"))
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return strings.Join(rows, "\n")
}
