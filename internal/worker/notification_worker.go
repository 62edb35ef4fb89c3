package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/lending-service/internal/events"
	"github.com/spec-kit/lending-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to every
// lending event type.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()

	types := make([]string, 0, len(events.AllEventTypes))
	for _, t := range events.AllEventTypes {
		types = append(types, string(t))
	}
	logger.Info("notification handlers registered", zap.Strings("event_types", types))
}
