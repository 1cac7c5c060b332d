package repository

import (
	"context"
	"database/sql"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/persistence"
)

// CommentRepository manages ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type commentRepository struct {
	db *persistence.Database
}

// NewCommentRepository builds repository.
func NewCommentRepository(db *persistence.Database) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, autor, conteudo, attachment_url, attachment_name, created_at)
        VALUES (?,?,?,?,?,?)
        RETURNING id`
	return r.db.QueryRowContext(ctx, r.db.Rebind(query),
		comment.TicketID,
		comment.Autor,
		comment.Conteudo,
		nullString(comment.AttachmentURL),
		nullString(comment.AttachmentName),
		comment.CreatedAt.UTC(),
	).Scan(&comment.ID)
}

// Update rewrites the mutable columns; ticket_id never changes.
func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	const query = `
        UPDATE comments SET autor=?, conteudo=?, attachment_url=?, attachment_name=?
        WHERE id=?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		comment.Autor,
		comment.Conteudo,
		nullString(comment.AttachmentURL),
		nullString(comment.AttachmentName),
		comment.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, autor, conteudo, attachment_url, attachment_name, created_at
        FROM comments WHERE id=?`
	return scanComment(r.db.QueryRowContext(ctx, r.db.Rebind(query), id))
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, autor, conteudo, attachment_url, attachment_name, created_at
        FROM comments WHERE ticket_id=? ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM comments WHERE id=?`), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanComment(row scanner) (*domain.Comment, error) {
	var (
		comment        domain.Comment
		attachmentURL  sql.NullString
		attachmentName sql.NullString
	)
	if err := row.Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.Autor,
		&comment.Conteudo,
		&attachmentURL,
		&attachmentName,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}
	comment.AttachmentURL = stringPtr(attachmentURL)
	comment.AttachmentName = stringPtr(attachmentName)
	comment.CreatedAt = comment.CreatedAt.UTC()
	return &comment, nil
}
