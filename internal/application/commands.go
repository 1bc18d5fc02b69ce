package application

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/domain/entities"
	"spacyboard/internal/logging"
	"spacyboard/internal/ports/input"
	"spacyboard/internal/ports/output"
)

var _ input.SessionCommands = (*SessionCommands)(nil)

// SessionCommands submits the board's forms. The response is never used:
// the outcome arrives as facts.
type SessionCommands struct {
	server    string
	sponsor   string
	submitter output.Submitter
	logger    *zerolog.Logger
}

// NewSessionCommands posts to the endpoints under server on behalf of
// sponsor.
func NewSessionCommands(server, sponsor string, submitter output.Submitter, logger *zerolog.Logger) *SessionCommands {
	return &SessionCommands{
		server:    strings.TrimRight(server, "/"),
		sponsor:   sponsor,
		submitter: submitter,
		logger:    logging.Component(logger, "commands"),
	}
}

func (c *SessionCommands) Suggest(ctx context.Context, title, description string) error {
	v := &domain.ValidationError{}
	if strings.TrimSpace(c.sponsor) == "" {
		v.Add("sponsor", "required")
	}
	if strings.TrimSpace(title) == "" {
		v.Add("title", "required")
	}
	if v.HasErrors() {
		return v
	}
	return c.submit(ctx, "suggest", "sessions", url.Values{
		"sponsor":     {c.sponsor},
		"title":       {strings.TrimSpace(title)},
		"description": {strings.TrimSpace(description)},
	})
}

func (c *SessionCommands) Claim(ctx context.Context, slot entities.Slot, id entities.SessionID) error {
	v := &domain.ValidationError{}
	if id.IsZero() {
		v.Add("id", "required")
	}
	validateSlot(v, slot)
	if v.HasErrors() {
		return v
	}
	return c.submit(ctx, "claim", "sessions/schedule", url.Values{
		"id":   {id.String()},
		"room": {slot.Room},
		"time": {slot.Time},
	})
}

func (c *SessionCommands) Delete(ctx context.Context, id entities.SessionID) error {
	if id.IsZero() {
		v := &domain.ValidationError{}
		v.Add("id", "required")
		return v
	}
	return c.submit(ctx, "delete", "sessions/delete", url.Values{"id": {id.String()}})
}

func (c *SessionCommands) Move(ctx context.Context, id entities.SessionID, to entities.Slot) error {
	v := &domain.ValidationError{}
	if id.IsZero() {
		v.Add("id", "required")
	}
	validateSlot(v, to)
	if v.HasErrors() {
		return v
	}
	return c.submit(ctx, "move", "sessions/move", url.Values{
		"id":   {id.String()},
		"room": {to.Room},
		"time": {to.Time},
	})
}

func validateSlot(v *domain.ValidationError, slot entities.Slot) {
	if strings.TrimSpace(slot.Room) == "" {
		v.Add("room", "required")
	}
	if strings.TrimSpace(slot.Time) == "" {
		v.Add("time", "required")
	}
}

func (c *SessionCommands) submit(ctx context.Context, command, path string, fields url.Values) error {
	if c.submitter == nil {
		return fmt.Errorf("%s: %w", command, domain.ErrMissingCollaborator)
	}
	action, err := url.JoinPath(c.server, path)
	if err != nil {
		return fmt.Errorf("%s: server url: %w", command, err)
	}
	c.submitter.Submit(ctx, output.Form{Action: action, Method: http.MethodPost, Fields: fields})
	c.logger.Info().Str("command", command).Str("action", action).Msg("Form submitted")
	return nil
}
