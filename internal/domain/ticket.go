package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every valid status in display order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// Label returns the human readable status name.
func (s TicketStatus) Label() string {
	switch s {
	case TicketStatusOpen:
		return "Open"
	case TicketStatusInProgress:
		return "In progress"
	case TicketStatusClosed:
		return "Closed"
	}
	return string(s)
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Department  string
	Status      TicketStatus
	OpenedBy    *string
	ImagePath   *string
	DueDate     *time.Time
	ClosedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOverdue reports whether the ticket is still pending past its due date.
// Closed tickets are never overdue.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.Status == TicketStatusClosed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now)
}

// CompletedOnTime reports whether a closed ticket was closed by its due date,
// or has no due date at all.
func (t *Ticket) CompletedOnTime() bool {
	if t.Status != TicketStatusClosed || t.ClosedAt == nil {
		return false
	}
	if t.DueDate == nil {
		return true
	}
	return !t.ClosedAt.After(*t.DueDate)
}

// ResolutionDays returns whole days between creation and closing, or nil if never closed.
func (t *Ticket) ResolutionDays() *int {
	if t.ClosedAt == nil || t.CreatedAt.IsZero() {
		return nil
	}
	days := int(t.ClosedAt.Sub(t.CreatedAt) / (24 * time.Hour))
	return &days
}

// ApplyStatus moves the ticket to status, stamping ClosedAt the first time it closes.
func (t *Ticket) ApplyStatus(status TicketStatus, now time.Time) {
	t.Status = status
	if status == TicketStatusClosed && t.ClosedAt == nil {
		closed := now
		t.ClosedAt = &closed
	}
}
