package application

import (
	"errors"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain/entities"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
)

// BoardDeps are the collaborators of a Board. Any view may be nil: the
// component that needs it then stays disabled.
type BoardDeps struct {
	Viewer string
	Slots  []entities.Slot
	Locale string

	Notifications NotificationsConfig

	QueueView        output.QueueView
	SlotView         output.SlotView
	StatusView       output.StatusView
	NotificationView output.NotificationView
	Include          output.ScheduleInclude
	Translator       output.Translator
	Submitter        output.Submitter
	Server           string
}

// Board is the whole page: every component, attached in page order so that
// the queue derives up-next before the cells and panels see a fact.
type Board struct {
	Queue         *WaitingQueue
	Grid          *SlotGrid
	Bulletin      *BulletinBoard
	Status        *UpNextStatus
	Notifications *UserNotifications
	Commands      *SessionCommands

	logger *zerolog.Logger
}

func NewBoard(deps BoardDeps, logger *zerolog.Logger) *Board {
	commands := NewSessionCommands(deps.Server, deps.Viewer, deps.Submitter, logger)
	queue := NewWaitingQueue(deps.QueueView, logger)

	notifCfg := deps.Notifications
	if notifCfg.Viewer == "" {
		notifCfg.Viewer = deps.Viewer
	}
	if notifCfg.Locale == "" {
		notifCfg.Locale = deps.Locale
	}

	return &Board{
		Queue:         queue,
		Grid:          NewSlotGrid(deps.Slots, deps.Viewer, deps.SlotView, queue, commands, logger),
		Bulletin:      NewBulletinBoard(deps.Include, logger),
		Status:        NewUpNextStatus(deps.Viewer, deps.Locale, deps.Translator, deps.StatusView, logger),
		Notifications: NewUserNotifications(notifCfg, deps.Translator, deps.NotificationView, logger),
		Commands:      commands,
		logger:        logging.Component(logger, "board"),
	}
}

// Attach subscribes every component to b. Components missing a
// collaborator stay disabled; their errors are joined and returned for
// reporting only.
func (b *Board) Attach(bus output.Bus) error {
	errs := []error{
		b.Queue.Attach(bus),
		b.Grid.Attach(bus),
		b.Bulletin.Attach(bus),
		b.Status.Attach(bus),
		b.Notifications.Attach(bus),
	}
	err := errors.Join(errs...)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Some components are disabled")
	}
	return err
}

// Detach removes every component from the bus.
func (b *Board) Detach() {
	b.Queue.Detach()
	b.Grid.Detach()
	b.Bulletin.Detach()
	b.Status.Detach()
	b.Notifications.Detach()
}
