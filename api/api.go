package api

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ollamaui/api/mcp"
	"github.com/papercomputeco/ollamaui/pkg/compose"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/worker"
	"github.com/papercomputeco/ollamaui/proxy"
)

//go:embed static
var static embed.FS

// Server is the ollamaui web server.
type Server struct {
	config   Config
	client   *ollama.Client
	driver   storage.Driver
	pool     *worker.Pool
	defaults *compose.DefaultsHolder
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The pool may be nil, in which case
// nothing is recorded.
func NewServer(config Config, client *ollama.Client, driver storage.Driver, pool *worker.Pool, logger *slog.Logger) (*Server, error) {
	if client == nil {
		return nil, errors.New("model client is required")
	}
	if driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.Upstream == "" {
		config.Upstream = client.BaseURL()
	}
	if config.KeepAlive <= 0 {
		config.KeepAlive = DefaultKeepAlive
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		client:   client,
		driver:   driver,
		pool:     pool,
		defaults: compose.NewDefaultsHolder(config.Defaults),
		logger:   logger,
		app:      app,
	}

	passthrough, err := proxy.New(proxy.Config{
		UpstreamURL: config.Upstream,
		Timeout:     config.Timeout,
	}, pool, logger)
	if err != nil {
		return nil, fmt.Errorf("could not create passthrough: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Client:   client,
		Driver:   driver,
		Pool:     pool,
		Defaults: s.defaults,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create MCP server: %w", err)
	}

	app.Get("/", s.handleIndex)
	app.Get("/ping", s.handlePing)
	app.Get("/api/defaults", s.handleDefaults)
	app.Post("/api/chat", s.handleChat)
	app.Get("/api/models", s.handleModels)
	app.Get("/api/history", s.handleListHistory)
	app.Get("/api/history/:id", s.handleGetHistory)
	app.All("/ollama/*", passthrough.Handle)
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// SetDefaults replaces the model and system prompt used for blank fields.
// It is safe to call while the server is running.
func (s *Server) SetDefaults(d compose.Defaults) {
	s.defaults.Store(d)
	s.logger.Info("defaults updated", "model", d.Model)
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"upstream", s.config.Upstream,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
