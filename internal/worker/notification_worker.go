package worker

import (
	"github.com/tickitpro/ticket-service/internal/events"
	"github.com/tickitpro/ticket-service/internal/service"
)

// RegisterNotificationHandlers wires the notification service into the event
// dispatcher.
func RegisterNotificationHandlers(dispatcher events.Dispatcher, notifications *service.NotificationService) {
	dispatcher.Subscribe(events.EventUserRegistered, notifications.HandleUserRegistered)
	dispatcher.Subscribe(events.EventUserUpdated, notifications.HandleUserUpdated)
	dispatcher.Subscribe(events.EventUserRemoved, notifications.HandleUserRemoved)
	dispatcher.Subscribe(events.EventUserPasswordChanged, notifications.HandleUserPasswordChanged)
}
