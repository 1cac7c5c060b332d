package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/events"
	"github.com/eaata/helpdesk/internal/repository"
)

// HistoryService keeps the status trail of each ticket from published events.
type HistoryService struct {
	history repository.TicketHistoryRepository
	tickets repository.TicketRepository
	logger  *zap.Logger
}

// HistoryDependencies wires the history service.
type HistoryDependencies struct {
	HistoryRepo repository.TicketHistoryRepository
	TicketRepo  repository.TicketRepository
	Logger      *zap.Logger
}

// NewHistoryService constructs the service.
func NewHistoryService(deps HistoryDependencies) *HistoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{history: deps.HistoryRepo, tickets: deps.TicketRepo, logger: logger}
}

// RegisterHandlers subscribes to ticket events.
func (s *HistoryService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, s.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketUpdated, s.handleTicketUpdated)
}

// ListHistory returns the trail of a ticket, oldest first.
func (s *HistoryService) ListHistory(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	if err := requirePositiveID(ticketID, "id"); err != nil {
		return nil, err
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket", ticketID)
	}
	return s.history.ListByTicket(ctx, ticketID)
}

func (s *HistoryService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("history: unexpected payload %T for %s", event.Payload, event.Type)
	}
	status := string(payload.Ticket.Status)
	return s.record(ctx, &domain.TicketHistory{
		TicketID:   event.TicketID,
		ChangeType: domain.HistoryCreated,
		NewValue:   &status,
		CreatedAt:  event.Timestamp,
	})
}

func (s *HistoryService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return fmt.Errorf("history: unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.OldStatus == payload.NewStatus {
		return nil
	}
	oldStatus, newStatus := string(payload.OldStatus), string(payload.NewStatus)
	return s.record(ctx, &domain.TicketHistory{
		TicketID:   event.TicketID,
		ChangeType: domain.HistoryStatusChanged,
		OldValue:   &oldStatus,
		NewValue:   &newStatus,
		CreatedAt:  event.Timestamp,
	})
}

func (s *HistoryService) record(ctx context.Context, entry *domain.TicketHistory) error {
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("history entry not stored",
			zap.Int64("ticket_id", entry.TicketID),
			zap.String("change", string(entry.ChangeType)),
			zap.Error(err))
		return err
	}
	return nil
}
