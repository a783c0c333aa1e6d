package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/ollamaui/pkg/compose"
	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/worker"
)

var (
	chatToolName    = "chat"
	chatDescription = "Send a prompt to a local Ollama model and return the complete reply with token statistics. Set structured with a JSON schema to constrain the reply to JSON."
)

// ChatInput represents the input arguments for the chat tool.
type ChatInput struct {
	Model      string `json:"model,omitempty" jsonschema:"model name, e.g. llama3.2 (default: the configured model)"`
	System     string `json:"system,omitempty" jsonschema:"optional system prompt"`
	Prompt     string `json:"prompt" jsonschema:"the user prompt"`
	Structured bool   `json:"structured,omitempty" jsonschema:"constrain the reply to the JSON schema in schema"`
	Schema     string `json:"schema,omitempty" jsonschema:"JSON schema text used when structured is set"`
}

// ChatOutput represents the output of the chat tool.
type ChatOutput struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Content string         `json:"content"`
	Stats   *decoder.Stats `json:"stats,omitempty"`
}

// handleChat composes and sends one non-streamed chat request.
func (s *Server) handleChat(ctx context.Context, _ *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, ChatOutput, error) {
	logger := s.config.Logger

	in := s.config.Defaults.Load().Apply(compose.Input{
		Model:      input.Model,
		System:     input.System,
		Prompt:     input.Prompt,
		Structured: input.Structured,
		Schema:     input.Schema,
	})

	req, err := compose.Compose(in)
	if err != nil {
		return errorResult(compose.UserMessage(err)), ChatOutput{}, nil
	}

	logger.Debug("MCP chat request",
		"model", req.Model,
		"structured", len(req.Format) > 0,
	)

	ex := storage.NewExchange(req)
	res, err := s.config.Client.Chat(ctx, req, nil)
	if ctx.Err() == nil {
		ex.Complete(res, err)
		s.record(ex)
	}

	if err != nil {
		logger.Error("MCP chat request failed", "error", err)
		return errorResult(fmt.Sprintf("Chat request failed: %s", ollama.Describe(err))), ChatOutput{}, nil
	}

	output := ChatOutput{
		ID:      ex.ID,
		Model:   req.Model,
		Content: res.Content,
		Stats:   res.Stats,
	}

	return textResult(output)
}

func (s *Server) record(ex *storage.Exchange) {
	if s.config.Pool == nil {
		return
	}
	if !s.config.Pool.Enqueue(worker.Job{Exchange: ex}) {
		s.config.Logger.Warn("dropping exchange, worker queue unavailable", "id", ex.ID)
	}
}

// textResult serializes output into a TextContent block alongside the
// structured output, for clients that only read text.
func textResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
