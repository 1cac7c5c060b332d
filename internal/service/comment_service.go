package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/events"
	"github.com/eaata/helpdesk/internal/repository"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// CommentService manages ticket comments.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// CommentInput is the payload for new comments.
type CommentInput struct {
	Autor          string
	Conteudo       string
	AttachmentURL  *string
	AttachmentName *string
}

// CommentUpdateInput holds partial comment changes.
type CommentUpdateInput struct {
	Autor          *string
	Conteudo       *string
	AttachmentURL  *string
	AttachmentName *string
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = utcNow
	}
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// AddComment attaches a comment to an existing ticket.
func (s *CommentService) AddComment(ctx context.Context, ticketID int64, input CommentInput) (*domain.Comment, error) {
	if err := requirePositiveID(ticketID, "ticketId"); err != nil {
		return nil, err
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket", ticketID)
	}

	comment := &domain.Comment{
		TicketID:       ticketID,
		Autor:          strings.TrimSpace(input.Autor),
		Conteudo:       input.Conteudo,
		AttachmentURL:  trimmedOrNil(input.AttachmentURL),
		AttachmentName: trimmedOrNil(input.AttachmentName),
		CreatedAt:      s.now(),
	}
	if !comment.HasContent() {
		return nil, errEmptyComment()
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, notFoundOr(err, "ticket", ticketID)
	}

	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			TicketID:  ticketID,
			Timestamp: comment.CreatedAt,
			Payload:   events.CommentAddedPayload{Comment: *comment},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return comment, nil
}

// ListComments returns a ticket's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	if err := requirePositiveID(ticketID, "ticketId"); err != nil {
		return nil, err
	}
	return s.comments.ListByTicket(ctx, ticketID)
}

// UpdateComment merges input into the stored comment and re-checks that it
// still carries text or an attachment.
func (s *CommentService) UpdateComment(ctx context.Context, id int64, input CommentUpdateInput) (*domain.Comment, error) {
	if err := requirePositiveID(id, "commentId"); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "comment", id)
	}

	if input.Autor != nil {
		comment.Autor = strings.TrimSpace(*input.Autor)
	}
	if input.Conteudo != nil {
		comment.Conteudo = *input.Conteudo
	}
	if input.AttachmentURL != nil {
		comment.AttachmentURL = trimmedOrNil(input.AttachmentURL)
	}
	if input.AttachmentName != nil {
		comment.AttachmentName = trimmedOrNil(input.AttachmentName)
	}
	if !comment.HasContent() {
		return nil, errEmptyComment()
	}

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, notFoundOr(err, "comment", id)
	}
	return comment, nil
}

// DeleteComment removes a comment.
func (s *CommentService) DeleteComment(ctx context.Context, id int64) error {
	if err := requirePositiveID(id, "commentId"); err != nil {
		return err
	}
	return notFoundOr(s.comments.Delete(ctx, id), "comment", id)
}

func errEmptyComment() error {
	return apperrors.NewValidationError("comment needs text or an attachment", nil)
}
