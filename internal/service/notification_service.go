package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/community-hub/internal/config"
	"github.com/spec-kit/community-hub/internal/events"
)

// NotificationService handles emitting notifications for community events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventHelpRequestOpened, n.handleHelpRequestOpened)
	n.dispatcher.Subscribe(events.EventHelpRequestResolved, n.handleHelpRequestResolved)
	n.dispatcher.Subscribe(events.EventVolunteerRegistered, n.handleVolunteerRegistered)
	n.dispatcher.Subscribe(events.EventPostCreated, n.handlePostCreated)
}

func (n *NotificationService) handlePostCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("PostCreated", zap.String("post_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleHelpRequestOpened(ctx context.Context, event events.Event) error {
	n.logger.Info("HelpRequestOpened", zap.String("request_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleHelpRequestResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("HelpRequestResolved", zap.String("request_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// handleVolunteerRegistered notifies the request author that a neighbor
// stepped up.
func (n *NotificationService) handleVolunteerRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("VolunteerRegistered", zap.String("request_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
