package domain

// Session lifecycle states as observed from facts.
const (
	StatusSuggested = "suggested"
	StatusQueued    = "queued"
	StatusScheduled = "scheduled"
	StatusMoved     = "moved"
	StatusDeleted   = "deleted"
)

// NobodyInQueue is the up-next sentinel published when the waiting queue
// becomes empty.
const NobodyInQueue = "nobody-in-queue"
