package input

import (
	"context"

	"spacyboard/internal/domain/entities"
)

// FactHandler is implemented by every component reacting to facts.
// HandleFact must never block and never panic on unexpected input.
type FactHandler interface {
	HandleFact(ctx context.Context, fact entities.Fact)
}

// FactHandlerFunc adapts a function to FactHandler.
type FactHandlerFunc func(ctx context.Context, fact entities.Fact)

func (f FactHandlerFunc) HandleFact(ctx context.Context, fact entities.Fact) { f(ctx, fact) }

// QueueHead exposes the current head of the waiting queue.
type QueueHead interface {
	Head() (entities.UpNext, bool)
}
