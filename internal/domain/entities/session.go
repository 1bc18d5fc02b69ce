package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SessionID is the opaque identity of a session. The server may send it as a
// JSON string or number; both decode to the same canonical string.
type SessionID string

func (id *SessionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SessionID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	*id = SessionID(canonicalNumber(n))
	return nil
}

// canonicalNumber spells integral numbers in decimal so 1, 1.0 and 1e0 name
// the same session.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (id SessionID) String() string { return string(id) }

// IsZero reports whether the id is missing.
func (id SessionID) IsZero() bool { return id == "" }

// Session is a talk proposed by a sponsor. Immutable once created.
type Session struct {
	ID          SessionID
	Title       string
	Description string
}

// QueueEntry is a session waiting for a slot, tagged with its sponsor.
type QueueEntry struct {
	Sponsor string
	Session Session
}
