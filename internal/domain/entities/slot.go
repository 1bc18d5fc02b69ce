package entities

// Slot is a (room, time) cell of the schedule. Both parts are opaque.
type Slot struct {
	Room string
	Time string
}

// Key returns the map key of the slot.
func (s Slot) Key() string { return s.Room + "\x00" + s.Time }

// IsZero reports whether neither room nor time is set.
func (s Slot) IsZero() bool { return s.Room == "" && s.Time == "" }

func (s Slot) String() string { return s.Room + "@" + s.Time }

// ClaimAction is the call-to-action offered to the up-next sponsor in an
// empty slot.
type ClaimAction struct {
	Slot      Slot
	SessionID SessionID
	Sponsor   string
}
