// Package api is the ollamaui web server: the chat form, its streaming
// endpoint, history, the recording Ollama passthrough and the MCP endpoint.
package api

import (
	"time"

	"github.com/papercomputeco/ollamaui/pkg/compose"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Upstream is the Ollama base URL behind /ollama/*. Defaults to the
	// client's base URL.
	Upstream string

	// Timeout bounds requests to a base URL chosen on the form.
	Timeout time.Duration

	// Defaults prefill the form and fill blank fields of chat requests.
	Defaults compose.Defaults

	// Stream is the initial state of the form's stream toggle.
	Stream bool

	// KeepAlive is the interval of SSE comments on /api/chat. Defaults to
	// DefaultKeepAlive.
	KeepAlive time.Duration
}

// DefaultKeepAlive is how often an idle chat stream is probed.
const DefaultKeepAlive = 5 * time.Second
