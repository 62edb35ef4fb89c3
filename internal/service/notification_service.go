package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/lending-service/internal/config"
	"github.com/spec-kit/lending-service/internal/events"
)

// EventForwarder ships events to an external channel.
type EventForwarder interface {
	Forward(ctx context.Context, event events.Event) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	forwarder  EventForwarder
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. forwarder may be nil.
func NewNotificationService(dispatcher events.Dispatcher, forwarder EventForwarder, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		forwarder:  forwarder,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventItemRegistered, n.handleRegistration)
	n.dispatcher.Subscribe(events.EventPatronRegistered, n.handleRegistration)
	n.dispatcher.Subscribe(events.EventStaffRegistered, n.handleRegistration)
	n.dispatcher.Subscribe(events.EventLoanCreated, n.handleLoanEvent)
	n.dispatcher.Subscribe(events.EventLoanReturned, n.handleLoanEvent)
	n.dispatcher.Subscribe(events.EventLoanOverdue, n.handleLoanOverdue)
}

func (n *NotificationService) handleRegistration(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("item_id", event.ItemID),
		zap.String("patron_id", event.PatronID),
		zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleLoanEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("loan_id", event.LoanID),
		zap.String("item_id", event.ItemID),
		zap.String("patron_id", event.PatronID),
		zap.Any("payload", event.Payload))
	n.logWebhookTarget(event)
	return n.forward(ctx, event)
}

func (n *NotificationService) handleLoanOverdue(ctx context.Context, event events.Event) error {
	n.logger.Warn(string(event.Type),
		zap.String("loan_id", event.LoanID),
		zap.String("patron_id", event.PatronID),
		zap.Any("payload", event.Payload))
	n.logWebhookTarget(event)
	return n.forward(ctx, event)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.forwarder == nil {
		return nil
	}
	return n.forwarder.Forward(ctx, event)
}

// logWebhookTarget only records, at debug level, which loan event a webhook
// at WebhookURL would receive. No HTTP request is sent.
func (n *NotificationService) logWebhookTarget(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook delivery not implemented, event logged only",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("loan_id", event.LoanID),
		zap.String("event_type", string(event.Type)))
}
