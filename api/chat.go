package api

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ollamaui/pkg/compose"
	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/sse"
	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/worker"
)

// ChatRequest is the form submission.
type ChatRequest struct {
	compose.Input

	// BaseURL overrides the configured model server for this request.
	BaseURL string `json:"base_url,omitempty"`
}

// handleChat validates the form and answers with an event stream of the
// decoder's progress. Validation failures are a plain 400.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var body ChatRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	req, err := compose.Compose(s.defaults.Load().Apply(body.Input))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: compose.UserMessage(err)})
	}

	client := s.clientFor(body.BaseURL)
	ex := storage.NewExchange(req)

	c.Set(fiber.HeaderContentType, sse.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// The stream outlives the handler, so it runs on its own goroutine and
	// context; fasthttp recycles c.Context() when the handler returns.
	pr, pw := io.Pipe()
	go s.streamChat(client, req, ex, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

// streamChat runs one chat request and writes its progress to pw. A
// keep-alive comment goes out every KeepAlive while the request runs, so a
// closed browser tab fails a write even before the first delta. Any failed
// write cancels the upstream request and nothing is recorded.
func (s *Server) streamChat(client *ollama.Client, req *llm.ChatRequest, ex *storage.Exchange, pw *io.PipeWriter) {
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := sse.NewWriter(pw)
	var (
		mu       sync.Mutex
		writeErr error
	)

	write := func(fn func() error) {
		mu.Lock()
		defer mu.Unlock()
		if writeErr != nil {
			return
		}
		if writeErr = fn(); writeErr != nil {
			cancel()
		}
	}
	send := func(eventType string, v any) {
		write(func() error { return w.SendJSON(eventType, v) })
	}

	stopKeepAlive := s.keepAlive(ctx, func() {
		write(func() error { return w.Comment("keep-alive") })
	})

	statsSent := false
	onUpdate := func(u decoder.Update) {
		if u.Delta != "" {
			send(EventDelta, DeltaEvent{Content: u.Content, Delta: u.Delta})
		}
		if u.Stats != nil && !statsSent && !u.Done {
			statsSent = true
			send(EventStats, StatsEvent{Stats: u.Stats})
		}
	}

	res, err := client.Chat(ctx, req, onUpdate)
	stopKeepAlive()

	mu.Lock()
	abandoned := writeErr
	mu.Unlock()
	if abandoned != nil || errors.Is(err, context.Canceled) {
		s.logger.Debug("chat stream abandoned by client", "id", ex.ID, "error", abandoned)
		return
	}

	ex.Complete(res, err)
	s.record(ex)

	if err != nil {
		s.logger.Warn("chat request failed", "id", ex.ID, "error", err)
		partial := ""
		if res != nil {
			partial = res.Content
		}
		send(EventError, ErrorEvent{Error: ollama.Describe(err), Content: partial})
		return
	}

	send(EventDone, DoneEvent{
		ID:      ex.ID,
		Content: res.Content,
		Stats:   res.Stats,
		Raw:     ex.Raw,
	})
}

// keepAlive calls ping every s.config.KeepAlive until ctx ends or the
// returned stop func is called. stop waits for the ticker goroutine.
func (s *Server) keepAlive(ctx context.Context, ping func()) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(s.config.KeepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				ping()
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (s *Server) record(ex *storage.Exchange) {
	if s.pool == nil {
		return
	}
	if !s.pool.Enqueue(worker.Job{Exchange: ex}) {
		s.logger.Warn("dropping exchange, worker queue unavailable", "id", ex.ID)
	}
}

// clientFor returns the configured client, or a new one when the form
// names a different server.
func (s *Server) clientFor(baseURL string) *ollama.Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || baseURL == s.client.BaseURL() {
		return s.client
	}
	return ollama.NewClient(ollama.Config{
		BaseURL: baseURL,
		Timeout: s.config.Timeout,
		Logger:  s.logger,
	})
}
