package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/utils"
)

var (
	historyToolName    = "history"
	historyDescription = "List recent chat exchanges, newest first, with a preview of each prompt and reply."
)

const previewLen = 120

// HistoryInput represents the input arguments for the history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of exchanges to return (default: 20)"`
}

// HistoryEntry is one exchange in the history listing.
type HistoryEntry struct {
	ID        string `json:"id"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Prompt    string `json:"prompt"`
	Reply     string `json:"reply"`
	Error     string `json:"error,omitempty"`
}

// HistoryOutput represents the output of the history tool.
type HistoryOutput struct {
	Exchanges []HistoryEntry `json:"exchanges"`
	Count     int            `json:"count"`
	Total     int            `json:"total"`
}

func (s *Server) handleHistory(ctx context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	exchanges, err := s.config.Driver.List(ctx, limit)
	if err != nil {
		s.config.Logger.Error("failed to list exchanges", "error", err)
		return errorResult(fmt.Sprintf("Failed to list history: %v", err)), HistoryOutput{}, nil
	}

	total, err := s.config.Driver.Count(ctx)
	if err != nil {
		s.config.Logger.Error("failed to count exchanges", "error", err)
		return errorResult(fmt.Sprintf("Failed to count history: %v", err)), HistoryOutput{}, nil
	}

	output := HistoryOutput{
		Exchanges: make([]HistoryEntry, 0, len(exchanges)),
		Total:     total,
	}
	for _, ex := range exchanges {
		output.Exchanges = append(output.Exchanges, HistoryEntry{
			ID:        ex.ID,
			Model:     ex.Model,
			CreatedAt: ex.CreatedAt.Format(time.RFC3339),
			Prompt:    utils.Truncate(ex.Prompt(), previewLen),
			Reply:     utils.Truncate(ex.Content, previewLen),
			Error:     ex.Error,
		})
	}
	output.Count = len(output.Exchanges)

	return textResult(output)
}
