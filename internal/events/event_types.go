package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountCreated  EventType = "account_created"
	EventAccountUpdated  EventType = "account_updated"
	EventAccountDeleted  EventType = "account_deleted"
	EventPasswordChanged EventType = "password_changed"
)

// Event represents a domain event emitted by services. Payloads carry
// account identity only; credential material is never attached.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountCreatedPayload payload.
type AccountCreatedPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AccountUpdatedPayload payload.
type AccountUpdatedPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AccountDeletedPayload payload.
type AccountDeletedPayload struct {
	Email string `json:"email"`
}
