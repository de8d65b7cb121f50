package chat

import "time"

// Session captures a transient anonymous conversation.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Status reports the live submission state of a session for polling
// observers: whether an assistant reply is still in flight, and the
// message of the most recent failed submission (empty when the last
// submission succeeded).
type Status struct {
	Pending   bool   `json:"pending"`
	LastError string `json:"lastError,omitempty"`
}
