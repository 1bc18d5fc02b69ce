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

var _ input.FactHandler = (*UpNextStatus)(nil)

// Up-next statuses of the viewing user.
const (
	StatusUpNext     = "up-next"
	StatusPleaseWait = "please-wait"
)

// UpNextStatus tells the viewer whether it is their turn to claim a slot.
type UpNextStatus struct {
	viewer     string
	locale     string
	translator output.Translator
	view       output.StatusView
	logger     *zerolog.Logger

	mu     sync.RWMutex
	upNext bool

	unsubscribe func()
}

func NewUpNextStatus(viewer, locale string, translator output.Translator, view output.StatusView, logger *zerolog.Logger) *UpNextStatus {
	return &UpNextStatus{
		viewer:     viewer,
		locale:     locale,
		translator: translator,
		view:       view,
		logger:     logging.Component(logger, "up-next"),
	}
}

func (s *UpNextStatus) Attach(bus output.Subscriber) error {
	if s.view == nil || s.translator == nil || bus == nil {
		s.logger.Warn().Msg("Up-next status disabled: no view or templates")
		return fmt.Errorf("up-next status: %w", domain.ErrMissingCollaborator)
	}
	s.unsubscribe = bus.Subscribe("up-next-status", s, entities.FactUpNext)
	return nil
}

func (s *UpNextStatus) Detach() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *UpNextStatus) HandleFact(_ context.Context, fact entities.Fact) {
	var (
		status string
		title  string
		mine   bool
	)
	switch f := fact.(type) {
	case entities.NobodyInQueue:
		status = domain.NobodyInQueue
	case entities.UpNext:
		mine = s.viewer != "" && f.Sponsor == s.viewer
		status = StatusPleaseWait
		if mine {
			status = StatusUpNext
		}
		title = f.Session.Title
	default:
		return
	}

	s.mu.Lock()
	s.upNext = mine
	s.mu.Unlock()

	text, ok := s.translator.Lookup(s.locale, "status."+status, map[string]any{"Title": title})
	if !ok {
		text = ""
	}
	s.view.SetStatus(status, text)
}

// IsUpNext reports whether the viewer is currently up next.
func (s *UpNextStatus) IsUpNext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upNext
}
