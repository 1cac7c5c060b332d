package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/persistence"
)

// TicketFilter captures listing parameters. Zero values mean "no constraint".
type TicketFilter struct {
	Statuses    []domain.TicketStatus
	Department  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	OldestFirst bool
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id int64) error
	Departments(ctx context.Context) ([]string, error)
}

type ticketRepository struct {
	db *persistence.Database
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db *persistence.Database) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, title, description, department, status, opened_by, image_path,
               due_date, closed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, department, status, opened_by, image_path, due_date, closed_at, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)
        RETURNING id`
	return r.db.QueryRowContext(ctx, r.db.Rebind(query),
		ticket.Title,
		ticket.Description,
		ticket.Department,
		string(ticket.Status),
		nullString(ticket.OpenedBy),
		nullString(ticket.ImagePath),
		nullTime(ticket.DueDate),
		nullTime(ticket.ClosedAt),
		ticket.CreatedAt.UTC(),
		ticket.UpdatedAt.UTC(),
	).Scan(&ticket.ID)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=?, description=?, department=?, status=?, opened_by=?, image_path=?,
            due_date=?, closed_at=?, updated_at=?
        WHERE id=?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		ticket.Title,
		ticket.Description,
		ticket.Department,
		string(ticket.Status),
		nullString(ticket.OpenedBy),
		nullString(ticket.ImagePath),
		nullTime(ticket.DueDate),
		nullTime(ticket.ClosedAt),
		ticket.UpdatedAt.UTC(),
		ticket.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=?`
	return scanTicket(r.db.QueryRowContext(ctx, r.db.Rebind(query), id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = "?"
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, "department=?")
	}
	if filter.CreatedFrom != nil {
		args = append(args, filter.CreatedFrom.UTC())
		clauses = append(clauses, "created_at >= ?")
	}
	if filter.CreatedTo != nil {
		args = append(args, filter.CreatedTo.UTC())
		clauses = append(clauses, "created_at <= ?")
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search, search)
		clauses = append(clauses, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
	}

	order := "updated_at DESC, id DESC"
	if filter.OldestFirst {
		order = "created_at ASC, id ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s`,
		ticketColumns, strings.Join(clauses, " AND "), order)
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

// Delete removes the ticket and its comments in one transaction.
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM comments WHERE ticket_id=?`), id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM tickets WHERE id=?`), id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ticketRepository) Departments(ctx context.Context) ([]string, error) {
	const query = `
        SELECT DISTINCT department FROM tickets
        WHERE department IS NOT NULL AND department <> ''`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var dept string
		if err := rows.Scan(&dept); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(result)
	return result, nil
}

func scanTicket(row scanner) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		status     string
		department sql.NullString
		openedBy   sql.NullString
		imagePath  sql.NullString
		dueDate    sql.NullTime
		closedAt   sql.NullTime
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&department,
		&status,
		&openedBy,
		&imagePath,
		&dueDate,
		&closedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	ticket.Department = department.String
	ticket.OpenedBy = stringPtr(openedBy)
	ticket.ImagePath = stringPtr(imagePath)
	ticket.DueDate = timePtr(dueDate)
	ticket.ClosedAt = timePtr(closedAt)
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	ticket.UpdatedAt = ticket.UpdatedAt.UTC()
	return &ticket, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
