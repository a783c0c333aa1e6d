// Package mcp exposes chat and history as MCP (Model Context Protocol)
// tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/ollamaui/pkg/compose"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/utils"
	"github.com/papercomputeco/ollamaui/pkg/worker"
)

type Config struct {
	// Client sends chat requests to the model server
	Client *ollama.Client

	// Driver answers history queries
	Driver storage.Driver

	// Pool records chat exchanges made through the tool (optional)
	Pool *worker.Pool

	// Defaults fill in a model or system prompt the caller left out (optional)
	Defaults *compose.DefaultsHolder

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the chat and history tools.
func NewServer(c Config) (*Server, error) {
	if c.Client == nil {
		return nil, errors.New("model client is required")
	}
	if c.Driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ollamaui",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        chatToolName,
		Description: chatDescription,
	}, s.handleChat)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        historyToolName,
		Description: historyDescription,
	}, s.handleHistory)

	s.mcpServer = mcpServer

	// Stateless: every call carries everything it needs.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// errorResult is a tool failure the calling model can read.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
