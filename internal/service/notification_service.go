package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/config"
	"github.com/spec-kit/support-triage/internal/events"
)

const notificationQueueSize = 256

// NotificationService logs domain events and forwards them to an optional webhook.
// Handlers only enqueue; delivery happens on the notification worker.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
	queue      chan events.Event
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger.Named("notifications"),
		cfg:        cfg,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		queue: make(chan events.Event, notificationQueueSize),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(n.handle, events.AllEventTypes...)
}

// Queue exposes pending webhook deliveries.
func (n *NotificationService) Queue() <-chan events.Event {
	return n.queue
}

func (n *NotificationService) handle(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("requester_id", event.RequesterID),
		zap.String("ticket_id", event.TicketID),
		zap.String("offer_id", event.OfferID),
		zap.Any("payload", event.Payload))

	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return nil
	}
	select {
	case n.queue <- event:
	default:
		n.logger.Warn("notification queue full; dropping event",
			zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Deliver POSTs event as JSON to the configured webhook.
func (n *NotificationService) Deliver(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	n.logger.Debug("webhook delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
	return nil
}
