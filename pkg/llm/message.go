package llm

import "strings"

// Message roles understood by the chat endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// Images holds base64-encoded images for multimodal models.
	Images []string `json:"images,omitempty"`
}

// NewTextMessage creates a text-only message with the given role.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:    role,
		Content: text,
	}
}

// IsBlank reports whether the message carries no visible text and no images.
func (m *Message) IsBlank() bool {
	return strings.TrimSpace(m.Content) == "" && len(m.Images) == 0
}
