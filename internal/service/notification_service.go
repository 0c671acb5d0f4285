package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tickitpro/ticket-service/internal/config"
	"github.com/tickitpro/ticket-service/internal/events"
)

// NotificationService reacts to user lifecycle events. Delivery is a logging
// stub; the email and webhook channels are configured but not yet sent over
// the wire.
type NotificationService struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService builds the service.
func NewNotificationService(cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{cfg: cfg, logger: logger}
}

// HandleUserRegistered sends the welcome notification.
func (s *NotificationService) HandleUserRegistered(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.UserRegisteredPayload)
	s.logger.Info("notify: user registered",
		zap.String("user_id", event.UserID),
		zap.String("email", payload.Email),
		zap.String("from", s.cfg.EmailFrom),
	)
	return nil
}

// HandleUserUpdated records which fields changed.
func (s *NotificationService) HandleUserUpdated(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.UserUpdatedPayload)
	s.logger.Info("notify: user updated",
		zap.String("user_id", event.UserID),
		zap.Strings("changed_fields", payload.ChangedFields),
	)
	return nil
}

// HandleUserRemoved sends the account-removed notification.
func (s *NotificationService) HandleUserRemoved(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.UserRemovedPayload)
	s.logger.Info("notify: user removed",
		zap.String("user_id", event.UserID),
		zap.String("email", payload.Email),
	)
	return nil
}

// HandleUserPasswordChanged sends the security notification.
func (s *NotificationService) HandleUserPasswordChanged(_ context.Context, event events.Event) error {
	s.logger.Info("notify: password changed",
		zap.String("user_id", event.UserID),
		zap.String("webhook_url", s.cfg.WebhookURL),
	)
	return nil
}
