package testutils

import (
	"time"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

// NewTestExchange creates a finished exchange for testing.
func NewTestExchange(id, prompt string, createdAt time.Time) *storage.Exchange {
	evalCount, evalDuration := int64(4), int64(2_000_000_000)

	return &storage.Exchange{
		ID:    id,
		Model: "test-model",
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "be terse"),
			llm.NewTextMessage(llm.RoleUser, prompt),
		},
		Stream:  true,
		Content: "reply to " + prompt,
		Raw:     []byte(`{"done":true,"eval_count":4,"eval_duration":2000000000}`),
		Stats: &decoder.Stats{
			EvalCount:    &evalCount,
			EvalDuration: &evalDuration,
			EvalRate:     decoder.DerivedRate(&evalCount, &evalDuration),
		},
		CreatedAt:  createdAt.UTC(),
		DurationMs: 2100,
	}
}
