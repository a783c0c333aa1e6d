package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/utils"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeCompleted is emitted after an exchange is stored.
	EventTypeExchangeCompleted = "ollamaui.exchange.completed"
)

// ExchangeCompletedEvent is a transport-neutral event payload for a stored
// exchange.
type ExchangeCompletedEvent struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     string           `json:"event_type"`
	EventID       string           `json:"event_id"`
	EmittedAt     time.Time        `json:"emitted_at"`
	Source        EventSource      `json:"source"`
	Exchange      storage.Exchange `json:"exchange"`
}

// EventSource identifies the process that emitted the event.
type EventSource struct {
	App     string `json:"app"`
	Version string `json:"version"`
}

// NewExchangeCompletedEvent wraps a copy of ex in a v1 event with a fresh
// event ID.
func NewExchangeCompletedEvent(ex *storage.Exchange) *ExchangeCompletedEvent {
	ev := &ExchangeCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeExchangeCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: EventSource{
			App:     "ollamaui",
			Version: utils.Version,
		},
	}
	if ex != nil {
		ev.Exchange = *ex
	}
	return ev
}
