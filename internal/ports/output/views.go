package output

import (
	"context"

	"spacyboard/internal/domain/entities"
)

// QueueView renders the waiting queue.
type QueueView interface {
	Append(entry entities.QueueEntry)
	Remove(id entities.SessionID)
}

// SlotView renders the slot cells. One view may serve every cell.
type SlotView interface {
	ShowSession(slot entities.Slot, sponsor string, session entities.Session)
	ClearSession(slot entities.Slot)
	ShowClaim(action entities.ClaimAction)
	ClearClaim(slot entities.Slot)
}

// Notification is a rendered transient message.
type Notification struct {
	Fact entities.FactType
	Text string
}

// NotificationView shows only the most recent notification.
type NotificationView interface {
	Show(ctx context.Context, n Notification)
	Clear(ctx context.Context)
}

// StatusView renders the up-next status line of the viewing user.
type StatusView interface {
	SetStatus(status, text string)
}

// ScheduleInclude is the live include of the full schedule view.
type ScheduleInclude interface {
	// Materialized reports whether the include has been built.
	Materialized() bool
	Materialize(ctx context.Context) error
	Refresh(ctx context.Context) error
}
