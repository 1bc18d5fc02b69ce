package input

import (
	"context"

	"spacyboard/internal/domain/entities"
)

// SessionCommands are the user intents sent to the server. None of them
// changes local state: the outcome arrives later as facts.
type SessionCommands interface {
	Suggest(ctx context.Context, title, description string) error
	Claim(ctx context.Context, slot entities.Slot, id entities.SessionID) error
	Delete(ctx context.Context, id entities.SessionID) error
	Move(ctx context.Context, id entities.SessionID, to entities.Slot) error
}
