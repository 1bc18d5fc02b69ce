package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/infrastructure/wire"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/output"
)

// FactSource turns the server push channel into facts on the bus.
// It performs no retry: reconnecting is the transport's business.
type FactSource struct {
	stream output.FactStream
	bus    output.Publisher
	logger *zerolog.Logger
}

func NewFactSource(stream output.FactStream, bus output.Publisher, logger *zerolog.Logger) *FactSource {
	return &FactSource{stream: stream, bus: bus, logger: logging.Component(logger, "fact-source")}
}

// Run reads the stream until ctx is cancelled or the transport fails, and
// closes the channel on the way out.
func (s *FactSource) Run(ctx context.Context) error {
	if s.stream == nil || s.bus == nil {
		s.logger.Warn().Msg("Fact source disabled: no stream or bus")
		return fmt.Errorf("fact source: %w", domain.ErrMissingCollaborator)
	}

	msgs, errs, err := s.stream.Open(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("❌ Could not open fact stream")
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer func() {
		if err := s.stream.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Closing fact stream")
		}
	}()
	s.logger.Info().Msg("✅ Fact stream open")

	for msgs != nil || errs != nil {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-msgs:
			if !ok {
				msgs = nil
				continue
			}
			s.HandleMessage(data)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			s.logger.Error().Err(err).Msg("❌ Fact stream failed")
			return fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
	}
	return nil
}

// HandleMessage decodes one envelope and publishes its fact. Untagged or
// malformed messages are dropped.
func (s *FactSource) HandleMessage(data []byte) {
	fact, err := wire.Decode(data)
	if err != nil {
		event := s.logger.Debug().
			Err(err).
			Str("code", domain.Code(err)).
			Int("bytes", len(data))
		if t, terr := wire.FactType(data); terr == nil {
			event = event.Str("fact", string(t))
		}
		event.Msg("Message dropped")
		return
	}
	s.logger.Debug().Str("fact", string(fact.Type())).Msg("Fact received")
	s.bus.Publish(fact)
}
