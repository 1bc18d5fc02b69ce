package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrMissingFactType     = errors.New("fait sans type")
	ErrUnknownFactType     = errors.New("type de fait inconnu")
	ErrMalformedFact       = errors.New("fait mal formé")
	ErrMissingCollaborator = errors.New("collaborateur requis absent")
	ErrNoClaimAction       = errors.New("aucune proposition de créneau pour cet utilisateur")
	ErrSlotNotFound        = errors.New("créneau inconnu")
	ErrTransport           = errors.New("canal de faits indisponible")
	ErrTemplateNotFound    = errors.New("modèle introuvable")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrMissingFactType, "missing_fact_type"},
	{ErrUnknownFactType, "unknown_fact_type"},
	{ErrMalformedFact, "malformed_fact"},
	{ErrMissingCollaborator, "missing_collaborator"},
	{ErrNoClaimAction, "no_claim_action"},
	{ErrSlotNotFound, "slot_not_found"},
	{ErrTransport, "transport"},
	{ErrTemplateNotFound, "template_not_found"},
}

// Code returns the stable code of the first domain error wrapped by err,
// or "" when err does not wrap one.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	return ""
}

// ValidationError captures field level issues of a command before it is
// submitted to the server.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed (%d field(s))", len(v.FieldErrors))
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
