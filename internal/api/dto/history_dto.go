package dto

import (
	"time"

	"github.com/eaata/helpdesk/internal/domain"
)

// HistoryResponse is one entry of a ticket's status trail.
type HistoryResponse struct {
	ID         int64                `json:"id"`
	TicketID   int64                `json:"ticketId"`
	ChangeType domain.HistoryChange `json:"changeType"`
	OldValue   *string              `json:"oldValue"`
	NewValue   *string              `json:"newValue"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// NewHistoryResponses maps history entries.
func NewHistoryResponses(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse(e))
	}
	return out
}
