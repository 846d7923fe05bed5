package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketCreationFailed  EventType = "ticket_creation_failed"
	EventEscalationOffered     EventType = "escalation_offered"
	EventEscalationConsumed    EventType = "escalation_consumed"
	EventTicketStatusRefreshed EventType = "ticket_status_refreshed"
)

// AllEventTypes lists every event the triage service emits.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketCreationFailed,
	EventEscalationOffered,
	EventEscalationConsumed,
	EventTicketStatusRefreshed,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	RequesterID string    `json:"requester_id,omitempty"`
	TicketID    string    `json:"ticket_id,omitempty"`
	OfferID     string    `json:"offer_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: eventType, Timestamp: at.UTC()}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Summary  string          `json:"summary"`
	Severity domain.Severity `json:"severity"`
	Category domain.Category `json:"category"`
	Urgency  domain.Urgency  `json:"urgency"`
	Deferred bool            `json:"deferred"`
}

// TicketCreationFailedPayload payload.
type TicketCreationFailedPayload struct {
	Severity domain.Severity `json:"severity"`
	Category domain.Category `json:"category"`
	Reason   string          `json:"reason"`
}

// EscalationOfferedPayload payload.
type EscalationOfferedPayload struct {
	Category  domain.Category `json:"category"`
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
}

// TicketStatusRefreshedPayload payload.
type TicketStatusRefreshedPayload struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
}
