// Package ollama is the HTTP transport to a local Ollama server. Chat
// responses are handed to pkg/decoder as they arrive.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/logger"
	"github.com/papercomputeco/ollamaui/pkg/utils"
)

const (
	// DefaultBaseURL is where a local Ollama listens by default.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTimeout bounds a whole request. LLM responses can be slow.
	DefaultTimeout = 5 * time.Minute

	// maxErrorBody caps how much of a failed response body is kept.
	maxErrorBody = 4096
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Detail returns the server's error message when the body is an Ollama
// error object, or the trimmed body otherwise.
func (e *StatusError) Detail() string {
	var resp llm.ErrorResponse
	if err := json.Unmarshal([]byte(e.Body), &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return strings.TrimSpace(e.Body)
}

// Config configures a Client.
type Config struct {
	// BaseURL of the Ollama server (e.g. "http://localhost:11434").
	BaseURL string

	// Timeout for a whole request. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// Logger is the configured slog logger.
	Logger *slog.Logger
}

// Client talks to one Ollama server. It is safe for concurrent use; each
// Chat call owns its own decoder.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client, filling in defaults for empty fields.
func NewClient(c Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     l,
	}
}

// BaseURL returns the server address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat POSTs req to /api/chat and decodes the reply. Streamed replies are
// decoded incrementally and onUpdate fires for every delta; non-streamed
// replies are decoded in one parse.
//
// Transport failures are returned as a single error. When a stream breaks
// part way, the result decoded so far is returned alongside the error.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest, onUpdate func(decoder.Update)) (*decoder.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending chat request",
		"base_url", c.baseURL,
		"model", req.Model,
		"message_count", len(req.Messages),
		"stream", req.Stream,
		"structured", len(req.Format) > 0,
	)

	resp, err := c.do(ctx, http.MethodPost, "/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !req.Stream {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		return decoder.DecodeBody(data, decoder.WithLogger(c.logger), decoder.WithUpdateFunc(onUpdate))
	}

	res, err := decoder.Decode(ctx, resp.Body, onUpdate, decoder.WithLogger(c.logger))
	if err != nil {
		return res, err
	}

	c.logger.Debug("chat stream finished",
		"model", req.Model,
		"records", res.Records,
		"malformed", res.Malformed,
		"has_stats", res.Stats != nil,
	)

	return res, nil
}

// ListModels returns the models available on the server.
func (c *Client) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	var out llm.ListModelsResponse
	if err := c.getJSON(ctx, "/api/tags", &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// Version returns the server version. It doubles as a reachability check.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out llm.VersionResponse
	if err := c.getJSON(ctx, "/api/version", &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// do sends a request and turns non-2xx answers into a *StatusError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("User-Agent", utils.UserAgent())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("sending request to %s: %w", c.baseURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(data),
		}
		c.logger.Debug("model server returned an error",
			"path", path,
			"status", resp.StatusCode,
			"detail", statusErr.Detail(),
		)
		return nil, statusErr
	}

	return resp, nil
}

// Describe renders err for people: a status error gains the server's
// message, anything else is err.Error().
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if detail := statusErr.Detail(); detail != "" {
			return statusErr.Error() + ": " + detail
		}
		return statusErr.Error()
	}

	return err.Error()
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
