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

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Department  string
	OpenedBy    *string
	ImagePath   *string
	DueDate     *time.Time
}

// TicketUpdateInput holds the fields of a partial update; nil means "leave as is".
type TicketUpdateInput struct {
	Title        *string
	Description  *string
	Department   *string
	Status       *domain.TicketStatus
	OpenedBy     *string
	ImagePath    *string
	DueDate      *time.Time
	ClearDueDate bool
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Department  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = utcNow
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// CreateTicket stores a new open ticket and announces it.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	now := s.now()
	ticket := &domain.Ticket{
		Title:       title,
		Description: input.Description,
		Department:  strings.TrimSpace(input.Department),
		Status:      domain.TicketStatusOpen,
		OpenedBy:    trimmedOrNil(input.OpenedBy),
		ImagePath:   trimmedOrNil(input.ImagePath),
		DueDate:     utcPtr(input.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload:  events.TicketCreatedPayload{Ticket: *ticket},
	})
	return ticket, nil
}

// ListTickets returns tickets, most recently updated first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
		}
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedTo.Before(*filter.CreatedFrom) {
		return nil, apperrors.NewValidationError("createdTo before createdFrom", nil)
	}
	return s.tickets.List(ctx, repository.TicketFilter{
		Statuses:    filter.Statuses,
		Department:  filter.Department,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	if err := requirePositiveID(id, "id"); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ticket", id)
	}
	return ticket, nil
}

// UpdateTicket merges input into the stored ticket. ClosedAt is stamped the first
// time the ticket reaches closed and kept afterwards.
func (s *TicketService) UpdateTicket(ctx context.Context, id int64, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"status":  *input.Status,
			"allowed": domain.TicketStatuses,
		})
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, apperrors.NewValidationError("title cannot be empty", nil)
	}

	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	now := s.now()

	if input.Title != nil {
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		ticket.Description = *input.Description
	}
	if input.Department != nil {
		ticket.Department = strings.TrimSpace(*input.Department)
	}
	if input.OpenedBy != nil {
		ticket.OpenedBy = trimmedOrNil(input.OpenedBy)
	}
	if input.ImagePath != nil {
		ticket.ImagePath = trimmedOrNil(input.ImagePath)
	}
	if input.ClearDueDate {
		ticket.DueDate = nil
	} else if input.DueDate != nil {
		ticket.DueDate = utcPtr(input.DueDate)
	}
	if input.Status != nil {
		ticket.ApplyStatus(*input.Status, now)
	}
	ticket.UpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "ticket", id)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Payload:  events.TicketUpdatedPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
	})
	return ticket, nil
}

// DeleteTicket removes a ticket together with its comments.
func (s *TicketService) DeleteTicket(ctx context.Context, id int64) error {
	if err := requirePositiveID(id, "id"); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return notFoundOr(err, "ticket", id)
	}
	s.publishEvent(ctx, events.Event{Type: events.EventTicketDeleted, TicketID: id})
	return nil
}

// Departments lists the distinct departments recorded on tickets.
func (s *TicketService) Departments(ctx context.Context) ([]string, error) {
	return s.tickets.Departments(ctx)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// utcNow is the default clock. Storage keeps microsecond precision.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
