package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/events"
	"github.com/eaata/helpdesk/internal/realtime"
)

// PushEventNewTicket is the event name clients listen for.
const PushEventNewTicket = "new_ticket"

// TicketPresenter shapes a ticket for the wire.
type TicketPresenter func(domain.Ticket) any

// NotificationService turns domain events into push messages.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  realtime.Publisher
	present    TicketPresenter
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Publisher  realtime.Publisher
	Presenter  TicketPresenter
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	present := deps.Presenter
	if present == nil {
		present = func(t domain.Ticket) any { return t }
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		publisher:  deps.Publisher,
		present:    present,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.logEvent)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.logEvent)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TicketCreated", zap.Int64("ticket_id", event.TicketID))
	if n.publisher == nil {
		return nil
	}
	msg := realtime.Message{Event: PushEventNewTicket, Data: n.present(payload.Ticket)}
	if err := n.publisher.Publish(ctx, msg); err != nil {
		n.logger.Warn("push new_ticket failed", zap.Int64("ticket_id", event.TicketID), zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Debug("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID))
	return nil
}
