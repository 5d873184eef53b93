package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mfrelance/workflow-service/internal/attachment"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/identity"
)

// RenderedMessage is a thread entry enriched for display: sender id resolved
// to the current display name and the payload classified. Both are derived
// at read time and never written back, so renamed users show their current
// name in historical messages.
type RenderedMessage struct {
	ID         int64
	SenderID   int64
	SenderName string
	Message    string
	Kind       attachment.Kind
	CreatedAt  time.Time
}

// threadEntry is the shape shared by ticket, chat and dispute messages.
type threadEntry struct {
	ID        int64
	SenderID  int64
	Message   string
	CreatedAt time.Time
}

// renderThread enriches entries preserving insertion order.
func renderThread(ctx context.Context, resolver *identity.Resolver, entries []threadEntry) []RenderedMessage {
	rendered := make([]RenderedMessage, 0, len(entries))
	for _, entry := range entries {
		rendered = append(rendered, RenderedMessage{
			ID:         entry.ID,
			SenderID:   entry.SenderID,
			SenderName: resolver.Resolve(ctx, entry.SenderID),
			Message:    entry.Message,
			Kind:       attachment.Classify(entry.Message),
			CreatedAt:  entry.CreatedAt,
		})
	}
	return rendered
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
