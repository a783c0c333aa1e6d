package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/llm"
)

// Exchange is one request to the model server together with what came back.
type Exchange struct {
	ID       string          `json:"id"`
	Model    string          `json:"model"`
	Messages []llm.Message   `json:"messages"`
	Format   json.RawMessage `json:"format,omitempty"`
	Stream   bool            `json:"stream"`

	// Content is the accumulated response text.
	Content string `json:"content"`

	// Raw is the terminal record as the server sent it.
	Raw   json.RawMessage `json:"raw,omitempty"`
	Stats *decoder.Stats  `json:"stats,omitempty"`

	// Error is set when the request failed; Content then holds whatever
	// arrived before the failure.
	Error string `json:"error,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	DurationMs int64     `json:"duration_ms"`
}

// NewExchange starts an exchange for req with a fresh ID.
func NewExchange(req *llm.ChatRequest) *Exchange {
	ex := &Exchange{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if req != nil {
		ex.Model = req.Model
		ex.Messages = req.Messages
		ex.Format = req.Format
		ex.Stream = req.Stream
	}
	return ex
}

// Complete records the outcome of the request. res may be nil or partial
// when err is set.
func (e *Exchange) Complete(res *decoder.Result, err error) {
	if res != nil {
		e.Content = res.Content
		e.Stats = res.Stats
		if res.Terminal != nil {
			e.Raw = res.Terminal.Raw
		}
	}
	if err != nil {
		e.Error = err.Error()
	}
	e.DurationMs = time.Since(e.CreatedAt).Milliseconds()
}

// Prompt returns the text of the last user message.
func (e *Exchange) Prompt() string {
	req := llm.ChatRequest{Messages: e.Messages}
	return req.UserText()
}

// Failed reports whether the exchange ended in an error.
func (e *Exchange) Failed() bool {
	return e.Error != ""
}
