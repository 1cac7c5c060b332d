package events

import (
	"time"

	"github.com/eaata/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketDeleted EventType = "ticket_deleted"
	EventCommentAdded  EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticketId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload carries the freshly stored ticket.
type TicketCreatedPayload struct {
	Ticket domain.Ticket
}

// TicketUpdatedPayload records the status transition of an update, if any.
type TicketUpdatedPayload struct {
	OldStatus domain.TicketStatus
	NewStatus domain.TicketStatus
}

// CommentAddedPayload carries the stored comment.
type CommentAddedPayload struct {
	Comment domain.Comment
}
