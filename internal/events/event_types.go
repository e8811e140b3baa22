package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSubmissionStarted   EventType = "submission_started"
	EventSubmissionSucceeded EventType = "submission_succeeded"
	EventSubmissionFailed    EventType = "submission_failed"
	EventSubmissionRejected  EventType = "submission_rejected"
	EventSessionCleared      EventType = "session_cleared"
)

// Event represents something observable that happened in the portal.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SubmissionPayload describes one form submission attempt.
type SubmissionPayload struct {
	Form     string `json:"form"`
	Endpoint string `json:"endpoint"`
	Target   string `json:"target,omitempty"`
	// Status is the backend HTTP status, zero when no response arrived.
	Status int   `json:"status,omitempty"`
	Err    error `json:"-"`
}
