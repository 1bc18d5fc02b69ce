// Package wire decodes the JSON envelopes pushed by the server into facts.
//
// An envelope is a flat JSON object. The fact type sits under
// "spacy.domain/fact" (or "type"); its value may be bare
// ("session-scheduled") or namespaced ("spacy.domain/session-scheduled").
// Payload keys are namespaced the same way, with plain aliases accepted.
package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"spacyboard/internal/domain"
	"spacyboard/internal/domain/entities"
)

const (
	KeyFact        = "spacy.domain/fact"
	KeySponsor     = "spacy.domain/sponsor"
	KeySession     = "spacy.domain/session"
	KeyRoom        = "spacy.domain/room"
	KeyTime        = "spacy.domain/time"
	KeyID          = "spacy.domain/id"
	KeyTitle       = "spacy.domain/title"
	KeyDescription = "spacy.domain/description"
)

var namespaces = []string{"spacy.domain/", "spacy.ui/", "spacy.app/"}

var aliases = map[string][]string{
	KeyFact:        {KeyFact, "type", "fact"},
	KeySponsor:     {KeySponsor, "sponsor"},
	KeySession:     {KeySession, "spacy.app/session", "session"},
	KeyRoom:        {KeyRoom, "room"},
	KeyTime:        {KeyTime, "time"},
	KeyID:          {KeyID, "id"},
	KeyTitle:       {KeyTitle, "title"},
	KeyDescription: {KeyDescription, "description"},
}

type object map[string]json.RawMessage

func (o object) raw(key string) (json.RawMessage, bool) {
	for _, k := range aliases[key] {
		if v, ok := o[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func (o object) str(key string) (string, error) {
	v, ok := o.raw(key)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", domain.ErrMalformedFact, key)
	}
	return strings.TrimSpace(s), nil
}

// FactType extracts the fact type of an envelope without decoding the
// payload.
func FactType(data []byte) (entities.FactType, error) {
	var env object
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedFact, err)
	}
	return factType(env)
}

func factType(env object) (entities.FactType, error) {
	name, err := env.str(KeyFact)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", domain.ErrMissingFactType
	}
	for _, ns := range namespaces {
		name = strings.TrimPrefix(name, ns)
	}
	t, ok := entities.ParseFactType(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownFactType, name)
	}
	return t, nil
}

// Decode turns one envelope into a fact. It returns ErrMissingFactType for
// untagged envelopes, ErrUnknownFactType for tags it does not know and
// ErrMalformedFact when the payload has the wrong shape.
func Decode(data []byte) (entities.Fact, error) {
	var env object
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFact, err)
	}
	t, err := factType(env)
	if err != nil {
		return nil, err
	}

	sponsor, err := env.str(KeySponsor)
	if err != nil {
		return nil, err
	}
	session, err := decodeSession(env)
	if err != nil {
		return nil, err
	}
	slot, err := decodeSlot(env)
	if err != nil {
		return nil, err
	}

	switch t {
	case entities.FactSessionSuggested:
		return entities.SessionSuggested{Sponsor: sponsor, Session: session}, nil
	case entities.FactSessionScheduled:
		return entities.SessionScheduled{Sponsor: sponsor, Session: session, Slot: slot}, nil
	case entities.FactSessionDeleted:
		return entities.SessionDeleted{Sponsor: sponsor, Session: session, Slot: slot}, nil
	case entities.FactSessionMoved:
		return entities.SessionMoved{Sponsor: sponsor, Session: session, Slot: slot}, nil
	case entities.FactUpNext:
		if sponsor == "" && session.ID.IsZero() {
			return entities.NobodyInQueue{}, nil
		}
		return entities.UpNext{Sponsor: sponsor, Session: session}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFactType, t)
	}
}

func decodeSession(env object) (entities.Session, error) {
	v, ok := env.raw(KeySession)
	if !ok {
		return entities.Session{}, nil
	}
	var obj object
	if err := json.Unmarshal(v, &obj); err != nil {
		return entities.Session{}, fmt.Errorf("%w: session is not an object", domain.ErrMalformedFact)
	}

	var s entities.Session
	if rawID, ok := obj.raw(KeyID); ok {
		if err := json.Unmarshal(rawID, &s.ID); err != nil {
			return entities.Session{}, fmt.Errorf("%w: %v", domain.ErrMalformedFact, err)
		}
	}
	var err error
	if s.Title, err = obj.str(KeyTitle); err != nil {
		return entities.Session{}, err
	}
	if s.Description, err = obj.str(KeyDescription); err != nil {
		return entities.Session{}, err
	}
	return s, nil
}

func decodeSlot(env object) (entities.Slot, error) {
	room, err := env.str(KeyRoom)
	if err != nil {
		return entities.Slot{}, err
	}
	at, err := env.str(KeyTime)
	if err != nil {
		return entities.Slot{}, err
	}
	return entities.Slot{Room: room, Time: at}, nil
}

// Encode renders fact as a namespaced envelope. The sentinel encodes as an
// up-next envelope without sponsor or session.
func Encode(fact entities.Fact) ([]byte, error) {
	if fact == nil {
		return nil, fmt.Errorf("%w: nil fact", domain.ErrMalformedFact)
	}
	f := entities.Fields(fact)
	env := map[string]any{KeyFact: "spacy.domain/" + string(f.Type)}
	if f.Sponsor != "" {
		env[KeySponsor] = f.Sponsor
	}
	if !f.Session.ID.IsZero() {
		env[KeySession] = map[string]any{
			KeyID:          f.Session.ID.String(),
			KeyTitle:       f.Session.Title,
			KeyDescription: f.Session.Description,
		}
	}
	if f.Slot.Room != "" {
		env[KeyRoom] = f.Slot.Room
	}
	if f.Slot.Time != "" {
		env[KeyTime] = f.Slot.Time
	}
	return json.Marshal(env)
}
