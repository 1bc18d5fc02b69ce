package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/domain/entities"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/input"
	"spacyboard/internal/ports/output"
)

var _ input.FactHandler = (*BulletinBoard)(nil)

// BulletinBoard keeps the live include of the full schedule fresh. It does
// not look at payloads: every schedule change means "fetch again".
type BulletinBoard struct {
	include output.ScheduleInclude
	logger  *zerolog.Logger

	unsubscribe func()
}

func NewBulletinBoard(include output.ScheduleInclude, logger *zerolog.Logger) *BulletinBoard {
	return &BulletinBoard{include: include, logger: logging.Component(logger, "bulletin-board")}
}

func (b *BulletinBoard) Attach(bus output.Subscriber) error {
	if b.include == nil || bus == nil {
		b.logger.Warn().Msg("Bulletin board disabled: no schedule include")
		return fmt.Errorf("bulletin board: %w", domain.ErrMissingCollaborator)
	}
	b.unsubscribe = bus.Subscribe("bulletin-board", b,
		entities.FactSessionScheduled,
		entities.FactSessionDeleted,
		entities.FactSessionMoved,
		entities.FactUpNext,
	)
	return nil
}

func (b *BulletinBoard) Detach() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *BulletinBoard) HandleFact(ctx context.Context, fact entities.Fact) {
	if b.include.Materialized() {
		if err := b.include.Refresh(ctx); err != nil {
			b.logger.Error().Err(err).Str("fact", string(fact.Type())).Msg("Schedule refresh failed")
		}
		return
	}
	if err := b.include.Materialize(ctx); err != nil {
		b.logger.Error().Err(err).Str("fact", string(fact.Type())).Msg("Schedule include failed")
	}
}
