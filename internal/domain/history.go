package domain

import "time"

// HistoryChange names what a history entry records.
type HistoryChange string

const (
	HistoryCreated       HistoryChange = "created"
	HistoryStatusChanged HistoryChange = "status_changed"
)

// TicketHistory is one audit entry of a ticket's status trail.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ChangeType HistoryChange
	OldValue   *string
	NewValue   *string
	CreatedAt  time.Time
}
