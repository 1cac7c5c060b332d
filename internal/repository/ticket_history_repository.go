package repository

import (
	"context"
	"database/sql"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/persistence"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db *persistence.Database
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db *persistence.Database) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, change_type, old_value, new_value, created_at)
        VALUES (?,?,?,?,?)
        RETURNING id`
	return r.db.QueryRowContext(ctx, r.db.Rebind(query),
		history.TicketID,
		string(history.ChangeType),
		nullString(history.OldValue),
		nullString(history.NewValue),
		history.CreatedAt.UTC(),
	).Scan(&history.ID)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=? ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var (
			history    domain.TicketHistory
			changeType string
			oldValue   sql.NullString
			newValue   sql.NullString
		)
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&changeType,
			&oldValue,
			&newValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.ChangeType = domain.HistoryChange(changeType)
		history.OldValue = stringPtr(oldValue)
		history.NewValue = stringPtr(newValue)
		history.CreatedAt = history.CreatedAt.UTC()
		result = append(result, history)
	}
	return result, rows.Err()
}
