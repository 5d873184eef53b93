package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mfrelance/workflow-service/internal/config"
	"github.com/mfrelance/workflow-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
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

// RegisterHandlers subscribes to events across all three workflows.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.notifyEmail)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.notifyWebhook)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.notifyWebhook)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.notifyEmail)

	n.dispatcher.Subscribe(events.EventChatRequestCreated, n.notifyEmail)
	n.dispatcher.Subscribe(events.EventChatRequestDecided, n.notifyWebhook)
	n.dispatcher.Subscribe(events.EventChatRoomEmptied, n.notifyWebhook)

	n.dispatcher.Subscribe(events.EventDisputeOpened, n.notifyEmail)
	n.dispatcher.Subscribe(events.EventDisputeAssigned, n.notifyWebhook)
	n.dispatcher.Subscribe(events.EventDisputeResolved, n.notifyEmail)
}

func (n *NotificationService) notifyEmail(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.Int64("entity_id", event.EntityID),
		zap.Int64("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) notifyWebhook(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.Int64("entity_id", event.EntityID),
		zap.Int64("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}
