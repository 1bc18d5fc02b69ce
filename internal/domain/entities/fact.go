package entities

import "spacyboard/internal/domain"

// FactType names a kind of fact. It is also the name under which facts are
// broadcast on the bus.
type FactType string

const (
	FactSessionSuggested FactType = "session-suggested"
	FactSessionScheduled FactType = "session-scheduled"
	FactSessionDeleted   FactType = "session-deleted"
	FactSessionMoved     FactType = "session-moved"
	FactUpNext           FactType = "up-next"
)

// FactTypes lists every known fact type.
var FactTypes = []FactType{
	FactSessionSuggested,
	FactSessionScheduled,
	FactSessionDeleted,
	FactSessionMoved,
	FactUpNext,
}

// ParseFactType returns the fact type named by s.
func ParseFactType(s string) (FactType, bool) {
	for _, t := range FactTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Fact is an immutable record of something that became true. The set of
// implementations is closed: SessionSuggested, SessionScheduled,
// SessionDeleted, SessionMoved, UpNext and NobodyInQueue.
type Fact interface {
	Type() FactType
	fact()
}

// SessionSuggested: a sponsor proposed a session; it joins the waiting queue.
type SessionSuggested struct {
	Sponsor string
	Session Session
}

// SessionScheduled: a session was assigned to a slot.
type SessionScheduled struct {
	Sponsor string
	Session Session
	Slot    Slot
}

// SessionDeleted: a session was withdrawn, from the queue or from its slot.
// Sponsor and Slot may be empty.
type SessionDeleted struct {
	Sponsor string
	Session Session
	Slot    Slot
}

// SessionMoved: a scheduled session now occupies Slot.
type SessionMoved struct {
	Sponsor string
	Session Session
	Slot    Slot
}

// UpNext names the sponsor and session at the head of the waiting queue.
// It is derived locally and never persisted.
type UpNext struct {
	Sponsor string
	Session Session
}

// NobodyInQueue is the up-next fact published when the queue is empty.
type NobodyInQueue struct{}

func (SessionSuggested) Type() FactType { return FactSessionSuggested }
func (SessionScheduled) Type() FactType { return FactSessionScheduled }
func (SessionDeleted) Type() FactType   { return FactSessionDeleted }
func (SessionMoved) Type() FactType     { return FactSessionMoved }
func (UpNext) Type() FactType           { return FactUpNext }
func (NobodyInQueue) Type() FactType    { return FactUpNext }

func (SessionSuggested) fact() {}
func (SessionScheduled) fact() {}
func (SessionDeleted) fact()   {}
func (SessionMoved) fact()     {}
func (UpNext) fact()           {}
func (NobodyInQueue) fact()    {}

// String returns the sentinel name.
func (NobodyInQueue) String() string { return domain.NobodyInQueue }

// FactFields is the flat view of a fact used by templates and logs.
type FactFields struct {
	Type    FactType
	Sponsor string
	Session Session
	Slot    Slot
}

// Fields flattens f. The sentinel yields only its type.
func Fields(f Fact) FactFields {
	switch v := f.(type) {
	case SessionSuggested:
		return FactFields{Type: v.Type(), Sponsor: v.Sponsor, Session: v.Session}
	case SessionScheduled:
		return FactFields{Type: v.Type(), Sponsor: v.Sponsor, Session: v.Session, Slot: v.Slot}
	case SessionDeleted:
		return FactFields{Type: v.Type(), Sponsor: v.Sponsor, Session: v.Session, Slot: v.Slot}
	case SessionMoved:
		return FactFields{Type: v.Type(), Sponsor: v.Sponsor, Session: v.Session, Slot: v.Slot}
	case UpNext:
		return FactFields{Type: v.Type(), Sponsor: v.Sponsor, Session: v.Session}
	case NobodyInQueue:
		return FactFields{Type: v.Type()}
	default:
		return FactFields{}
	}
}
