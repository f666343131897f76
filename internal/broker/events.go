package broker

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventWriter writes one keyed event
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing storefront events
type EventPublisher struct {
	writer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(writer EventWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// PublishCheckoutStarted publishes CheckoutStarted event
func (ep *EventPublisher) PublishCheckoutStarted(ctx context.Context, event *models.CheckoutStartedEvent) error {
	return ep.writer.PublishEvent(ctx, "session-"+event.SessionID, event)
}

// PublishFavoritesMerged publishes FavoritesMerged event
func (ep *EventPublisher) PublishFavoritesMerged(ctx context.Context, event *models.FavoritesMergedEvent) error {
	return ep.writer.PublishEvent(ctx, "session-"+event.SessionID, event)
}

// LogWriter stands in for Kafka when no brokers are configured
type LogWriter struct{}

// PublishEvent logs the event instead of sending it
func (LogWriter) PublishEvent(_ context.Context, key string, event interface{}) error {
	util.GetLogger().Info("Event not sent, no brokers configured", zap.String("key", key), zap.Any("event", event))
	return nil
}
