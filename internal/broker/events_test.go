package broker

import (
	"context"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	keys   []string
	events []interface{}
}

func (w *recordingWriter) PublishEvent(_ context.Context, key string, event interface{}) error {
	w.keys = append(w.keys, key)
	w.events = append(w.events, event)
	return nil
}

func TestPublishCheckoutStartedKeysBySession(t *testing.T) {
	w := &recordingWriter{}
	ep := NewEventPublisher(w)

	event := &models.CheckoutStartedEvent{
		BaseEvent: NewBaseEvent(models.EventTypeCheckoutStarted),
		SessionID: "abc",
	}
	require.NoError(t, ep.PublishCheckoutStarted(context.Background(), event))

	assert.Equal(t, []string{"session-abc"}, w.keys)
	assert.Same(t, event, w.events[0])
}

func TestNewBaseEvent(t *testing.T) {
	a := NewBaseEvent(models.EventTypeFavoritesMerged)
	b := NewBaseEvent(models.EventTypeFavoritesMerged)

	assert.Equal(t, models.EventTypeFavoritesMerged, a.EventType)
	assert.NotEqual(t, a.EventID, b.EventID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestLogWriterNeverFails(t *testing.T) {
	assert.NoError(t, LogWriter{}.PublishEvent(context.Background(), "k", map[string]string{"a": "b"}))
}
