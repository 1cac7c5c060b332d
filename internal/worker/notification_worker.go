package worker

import (
	"context"

	"github.com/eaata/helpdesk/internal/realtime"
	"github.com/eaata/helpdesk/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a Redis
// relay is configured, starts forwarding its channel to local clients.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, relay *realtime.RedisRelay) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if relay != nil {
		go relay.Run(ctx)
	}
}
