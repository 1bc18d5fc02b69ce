package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/domain/entities"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/input"
	"spacyboard/internal/ports/output"
)

var _ input.FactHandler = (*UserNotifications)(nil)

// NotifyMode selects which facts produce a notification for the viewer.
type NotifyMode string

const (
	// NotifyAll notifies on every declared fact.
	NotifyAll NotifyMode = "all"
	// NotifySchedule notifies on schedule changes regardless of sponsor,
	// and on other facts only for the viewer's own sessions.
	NotifySchedule NotifyMode = "schedule"
	// NotifySponsor notifies only about the viewer's own sessions.
	NotifySponsor NotifyMode = "sponsor"
)

// ParseNotifyMode returns the mode named by s, NotifySponsor by default.
func ParseNotifyMode(s string) (NotifyMode, error) {
	switch NotifyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", NotifySponsor:
		return NotifySponsor, nil
	case NotifyAll:
		return NotifyAll, nil
	case NotifySchedule:
		return NotifySchedule, nil
	default:
		return "", fmt.Errorf("unknown notify mode %q", s)
	}
}

// NotificationsConfig declares what the panel reacts to.
type NotificationsConfig struct {
	Viewer   string
	Mode     NotifyMode
	Facts    []entities.FactType // empty means every fact type
	Locale   string
	Location *time.Location
	Now      func() time.Time
}

// UserNotifications shows the most recent notification relevant to the
// viewer. It is a single-message panel, not a log.
type UserNotifications struct {
	cfg        NotificationsConfig
	translator output.Translator
	view       output.NotificationView
	logger     *zerolog.Logger

	mu    sync.Mutex
	shown bool

	unsubscribe func()
}

func NewUserNotifications(cfg NotificationsConfig, translator output.Translator, view output.NotificationView, logger *zerolog.Logger) *UserNotifications {
	if cfg.Mode == "" {
		cfg.Mode = NotifySponsor
	}
	if len(cfg.Facts) == 0 {
		cfg.Facts = entities.FactTypes
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &UserNotifications{
		cfg:        cfg,
		translator: translator,
		view:       view,
		logger:     logging.Component(logger, "user-notifications"),
	}
}

func (n *UserNotifications) Attach(bus output.Subscriber) error {
	if n.view == nil || n.translator == nil || bus == nil {
		n.logger.Warn().Msg("User notifications disabled: no view or templates")
		return fmt.Errorf("user notifications: %w", domain.ErrMissingCollaborator)
	}
	n.unsubscribe = bus.Subscribe("user-notifications", n, n.cfg.Facts...)
	return nil
}

func (n *UserNotifications) Detach() {
	if n.unsubscribe != nil {
		n.unsubscribe()
		n.unsubscribe = nil
	}
}

func (n *UserNotifications) HandleFact(ctx context.Context, fact entities.Fact) {
	n.clear(ctx)

	f := entities.Fields(fact)
	if !n.passes(f) {
		return
	}

	key := TemplateKey(fact)
	msg, ok := n.translator.Lookup(n.cfg.Locale, key, map[string]any{
		"Title":   f.Session.Title,
		"Sponsor": f.Sponsor,
		"Room":    f.Slot.Room,
		"Time":    f.Slot.Time,
		"At":      n.cfg.Now().In(n.cfg.Location).Format("02/01/2006 15:04"),
	})
	if !ok {
		n.logger.Debug().Err(domain.ErrTemplateNotFound).Str("template", key).Msg("Nothing rendered")
		return
	}

	n.mu.Lock()
	n.shown = true
	n.mu.Unlock()
	n.view.Show(ctx, output.Notification{Fact: f.Type, Text: msg})
}

func (n *UserNotifications) clear(ctx context.Context) {
	n.mu.Lock()
	shown := n.shown
	n.shown = false
	n.mu.Unlock()
	if shown {
		n.view.Clear(ctx)
	}
}

func (n *UserNotifications) passes(f entities.FactFields) bool {
	switch n.cfg.Mode {
	case NotifyAll:
		return true
	case NotifySchedule:
		switch f.Type {
		case entities.FactSessionScheduled, entities.FactSessionMoved, entities.FactSessionDeleted:
			return true
		}
	}
	return f.Sponsor != "" && f.Sponsor == n.cfg.Viewer
}

// TemplateKey names the message template of fact.
func TemplateKey(fact entities.Fact) string {
	if _, ok := fact.(entities.NobodyInQueue); ok {
		return "notification." + domain.NobodyInQueue
	}
	return "notification." + string(fact.Type())
}
