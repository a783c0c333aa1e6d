// Package compose turns form input into a chat request: it assembles the
// role-tagged messages, splices in an attached file, and validates the
// structured output schema before anything is sent.
package compose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/ollamaui/pkg/llm"
)

// FilePlaceholder is replaced with the attached file content wherever it
// appears in the prompt.
const FilePlaceholder = "@file"

// DefaultSchema prefills the schema field.
const DefaultSchema = `{"type":"object","properties":{"example":{"type":"string"}},"required":["example"]}`

var (
	// ErrMissingInput is returned when the model is empty or no message
	// could be composed.
	ErrMissingInput = errors.New("Model and user prompt are required.") //nolint:staticcheck // shown to users verbatim

	// ErrInvalidSchema is returned when the structured output schema is not
	// valid JSON.
	ErrInvalidSchema = errors.New("Invalid JSON schema.") //nolint:staticcheck // shown to users verbatim
)

// Input is everything a user can fill in on the form.
type Input struct {
	Model       string `json:"model"`
	System      string `json:"system,omitempty"`
	Prompt      string `json:"prompt"`
	FileContent string `json:"file_content,omitempty"`
	Structured  bool   `json:"structured,omitempty"`
	Schema      string `json:"schema,omitempty"`
	Stream      bool   `json:"stream"`
}

// BuildMessages returns the system message (when the system prompt is not
// blank) followed by the user message (when the composed user text is not
// blank).
//
// With an attached file, every @file in the prompt is replaced by the file
// content; a prompt without the placeholder gets the file appended on a new
// line.
func BuildMessages(in Input) []llm.Message {
	var messages []llm.Message

	if strings.TrimSpace(in.System) != "" {
		messages = append(messages, llm.NewTextMessage(llm.RoleSystem, in.System))
	}

	user := in.Prompt
	if in.FileContent != "" {
		if strings.Contains(in.Prompt, FilePlaceholder) {
			user = strings.ReplaceAll(in.Prompt, FilePlaceholder, in.FileContent)
		} else {
			user = in.Prompt + "\n" + in.FileContent
		}
	}

	if strings.TrimSpace(user) != "" {
		messages = append(messages, llm.NewTextMessage(llm.RoleUser, user))
	}

	return messages
}

// Compose validates in and builds the request. Nothing is sent when it
// returns an error.
func Compose(in Input) (*llm.ChatRequest, error) {
	messages := BuildMessages(in)
	if strings.TrimSpace(in.Model) == "" || len(messages) == 0 {
		return nil, ErrMissingInput
	}

	req := &llm.ChatRequest{
		Model:    strings.TrimSpace(in.Model),
		Messages: messages,
		Stream:   in.Stream,
	}

	if in.Structured {
		format, err := ParseSchema(in.Schema)
		if err != nil {
			return nil, err
		}
		req.Format = format
	}

	return req, nil
}

// UserMessage returns the message shown for a Compose error: the bare
// sentinel text for the validation errors above, err.Error() otherwise.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingInput):
		return ErrMissingInput.Error()
	case errors.Is(err, ErrInvalidSchema):
		return ErrInvalidSchema.Error()
	default:
		return err.Error()
	}
}

// ParseSchema validates text as JSON and returns it compacted. Key order and
// number literals are kept as written.
func ParseSchema(text string) (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	return buf.Bytes(), nil
}
