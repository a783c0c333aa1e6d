package api

import (
	"encoding/json"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
)

// Event types sent on the /api/chat stream.
const (
	EventDelta = "delta"
	EventStats = "stats"
	EventDone  = "done"
	EventError = "error"
)

// DeltaEvent carries newly decoded text and the content so far.
type DeltaEvent struct {
	Content string `json:"content"`
	Delta   string `json:"delta"`
}

// StatsEvent is sent once the terminal record has arrived.
type StatsEvent struct {
	Stats *decoder.Stats `json:"stats"`
}

// DoneEvent ends a successful stream.
type DoneEvent struct {
	ID      string          `json:"id"`
	Content string          `json:"content"`
	Stats   *decoder.Stats  `json:"stats,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// ErrorEvent ends a failed stream. Content holds whatever was decoded
// before the failure.
type ErrorEvent struct {
	Error   string `json:"error"`
	Content string `json:"content,omitempty"`
}
