package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ollamaui/pkg/compose"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

// DefaultsResponse prefills the chat form.
type DefaultsResponse struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	System  string `json:"system"`
	Stream  bool   `json:"stream"`
	Schema  string `json:"schema"`
}

// HistoryResponse is a page of exchanges, newest first.
type HistoryResponse struct {
	Exchanges []*storage.Exchange `json:"exchanges"`
	Count     int                 `json:"count"`
	Total     int                 `json:"total"`
}

// handleIndex serves the chat form.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "page unavailable"})
	}
	c.Type("html", "utf-8")
	return c.Send(page)
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleDefaults(c *fiber.Ctx) error {
	d := s.defaults.Load()
	return c.JSON(DefaultsResponse{
		BaseURL: s.client.BaseURL(),
		Model:   d.Model,
		System:  d.System,
		Stream:  s.config.Stream,
		Schema:  compose.DefaultSchema,
	})
}

// handleModels lists the models of the server named by ?base_url=, or the
// configured one.
func (s *Server) handleModels(c *fiber.Ctx) error {
	models, err := s.clientFor(c.Query("base_url")).ListModels(c.Context())
	if err != nil {
		s.logger.Warn("listing models failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: ollama.Describe(err)})
	}
	if models == nil {
		models = []llm.ModelInfo{}
	}
	return c.JSON(llm.ListModelsResponse{Models: models})
}

func (s *Server) handleListHistory(c *fiber.Ctx) error {
	ctx := c.Context()

	limit := c.QueryInt("limit", storage.DefaultListLimit)
	exchanges, err := s.driver.List(ctx, limit)
	if err != nil {
		s.logger.Error("listing history failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list history"})
	}

	total, err := s.driver.Count(ctx)
	if err != nil {
		s.logger.Error("counting history failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to count history"})
	}

	if exchanges == nil {
		exchanges = []*storage.Exchange{}
	}

	return c.JSON(HistoryResponse{
		Exchanges: exchanges,
		Count:     len(exchanges),
		Total:     total,
	})
}

func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "id parameter required"})
	}

	ex, err := s.driver.Get(c.Context(), id)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "exchange not found"})
		}
		s.logger.Error("loading exchange failed", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load exchange"})
	}

	return c.JSON(ex)
}
