package events

import (
	"time"

	"github.com/tickitpro/ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered      EventType = "user_registered"
	EventUserUpdated         EventType = "user_updated"
	EventUserRemoved         EventType = "user_removed"
	EventUserPasswordChanged EventType = "user_password_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	DepartmentID *string     `json:"department_id,omitempty"`
}

// UserUpdatedPayload lists the fields an update actually touched.
type UserUpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
}

// UserRemovedPayload payload.
type UserRemovedPayload struct {
	Email string `json:"email"`
}
