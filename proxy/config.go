package proxy

import "time"

// Config is the passthrough configuration.
type Config struct {
	// UpstreamURL is the Ollama base URL (e.g., "http://localhost:11434").
	UpstreamURL string

	// Timeout bounds a whole upstream request. Defaults to five minutes.
	Timeout time.Duration
}
