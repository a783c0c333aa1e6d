package llm

import "encoding/json"

// ChatRequest is the body POSTed to /api/chat.
type ChatRequest struct {
	// Model name (e.g., "llama3.2", "gemma3:1b")
	Model string `json:"model"`

	// Conversation messages, system first
	Messages []Message `json:"messages"`

	// Stream selects newline-delimited streaming. Ollama streams when the
	// field is absent, so it is always sent.
	Stream bool `json:"stream"`

	// Format is either the string "json" or a JSON schema that constrains
	// the reply. It is passed through unmodified.
	Format json.RawMessage `json:"format,omitempty"`

	// Options are model parameters such as temperature or num_ctx.
	Options map[string]any `json:"options,omitempty"`

	// KeepAlive controls how long the model stays loaded (e.g. "5m").
	KeepAlive string `json:"keep_alive,omitempty"`
}

// UserText returns the content of the last user message.
func (r *ChatRequest) UserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}
