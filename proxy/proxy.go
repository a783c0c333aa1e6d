// Package proxy is a transparent passthrough to an Ollama server that
// records chat exchanges on the way through.
//
// Requests are relayed byte for byte. Chat responses are additionally fed
// through a decoder.Decoder as they stream past, and the finished exchange
// is handed to the worker pool for storage.
package proxy

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

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/logger"
	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/worker"
	"github.com/papercomputeco/ollamaui/proxy/header"
)

const (
	chatPath = "/api/chat"

	defaultTimeout = 5 * time.Minute

	// relayChunkSize is the read buffer for streamed bodies.
	relayChunkSize = 32 * 1024
)

// Proxy forwards requests to the upstream and records chat exchanges.
type Proxy struct {
	config     Config
	pool       *worker.Pool
	logger     *slog.Logger
	httpClient *http.Client
}

// New creates a Proxy. A nil pool relays without recording.
func New(config Config, pool *worker.Pool, log *slog.Logger) (*Proxy, error) {
	config.UpstreamURL = strings.TrimRight(strings.TrimSpace(config.UpstreamURL), "/")
	if config.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Proxy{
		config: config,
		pool:   pool,
		logger: log,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Handle relays one request. It expects to be mounted on a wildcard route;
// the wildcard is the upstream path.
func (p *Proxy) Handle(c *fiber.Ctx) error {
	path := "/" + strings.TrimPrefix(c.Params("*"), "/")
	target := p.config.UpstreamURL + path
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		target += "?" + string(q)
	}

	// fasthttp reuses the request body once the handler returns.
	body := append([]byte(nil), c.Body()...)

	var ex *storage.Exchange
	streaming := false
	if c.Method() == fiber.MethodPost && path == chatPath {
		ex, streaming = p.startExchange(body)
	}

	if ex != nil && streaming {
		return p.relayStreaming(c, target, body, ex)
	}

	return p.relay(c, target, body, ex)
}

// startExchange parses a chat request body. Ollama streams when the stream
// field is absent, and so does the returned flag.
func (p *Proxy) startExchange(body []byte) (*storage.Exchange, bool) {
	var req llm.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		p.logger.Warn("not recording unparseable chat request", "error", err)
		return nil, false
	}

	var streamCheck struct {
		Stream *bool `json:"stream"`
	}
	_ = json.Unmarshal(body, &streamCheck)
	streaming := streamCheck.Stream == nil || *streamCheck.Stream

	ex := storage.NewExchange(&req)
	ex.Stream = streaming

	p.logger.Debug("recording chat request",
		"model", req.Model,
		"message_count", len(req.Messages),
		"stream", streaming,
	)

	return ex, streaming
}

// relay forwards a request and sends back the whole upstream body. A
// successful non-streamed chat reply is decoded and recorded.
func (p *Proxy) relay(c *fiber.Ctx, target string, body []byte, ex *storage.Exchange) error {
	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(c.Context(), c.Method(), target, reqBody)
	if err != nil {
		p.logger.Error("failed to create upstream request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}
	header.CopyRequest(c, httpReq)

	p.logger.Debug("forwarding request to upstream",
		"method", c.Method(),
		"url", target,
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "failed to read upstream response"})
	}

	header.CopyResponse(c, httpResp)

	if ex != nil && isSuccess(httpResp.StatusCode) {
		res, err := decoder.DecodeBody(respBody, decoder.WithLogger(p.logger))
		ex.Complete(res, err)
		p.record(ex)
	}

	return c.Status(httpResp.StatusCode).Send(respBody)
}

// relayStreaming forwards a streamed chat request. The upstream body is
// piped to the client chunk by chunk while the same chunks are decoded.
func (p *Proxy) relayStreaming(c *fiber.Ctx, target string, body []byte, ex *storage.Exchange) error {
	// The stream outlives the handler and fasthttp recycles c.Context()
	// when the handler returns.
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("failed to create upstream request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}
	header.CopyRequest(c, httpReq)

	p.logger.Debug("forwarding streaming request to upstream", "url", target)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}

	if !isSuccess(httpResp.StatusCode) {
		defer httpResp.Body.Close()
		respBody, _ := io.ReadAll(httpResp.Body)
		p.logger.Warn("upstream returned error",
			"status", httpResp.StatusCode,
			"body", string(respBody),
		)
		header.CopyResponse(c, httpResp)
		return c.Status(httpResp.StatusCode).Send(respBody)
	}

	header.CopyResponse(c, httpResp)

	// pw.Write blocks until fasthttp has flushed the previous chunk to the
	// client, so the client sees each chunk as soon as Ollama sends it.
	pr, pw := io.Pipe()
	go p.pipeAndDecode(httpResp, pw, ex)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (p *Proxy) pipeAndDecode(httpResp *http.Response, pw *io.PipeWriter, ex *storage.Exchange) {
	defer httpResp.Body.Close()

	dec := decoder.New(decoder.WithLogger(p.logger))
	buf := make([]byte, relayChunkSize)

	for {
		n, err := httpResp.Body.Read(buf)
		if n > 0 {
			_, _ = dec.Write(buf[:n])
			if _, werr := pw.Write(buf[:n]); werr != nil {
				// The client is gone; the exchange is abandoned.
				p.logger.Debug("client stopped reading stream", "error", werr)
				_ = pw.CloseWithError(werr)
				return
			}
		}

		if errors.Is(err, io.EOF) {
			_ = pw.Close()
			ex.Complete(dec.Finish(), nil)
			break
		}

		if err != nil {
			p.logger.Error("error reading upstream stream", "error", err)
			_ = pw.CloseWithError(err)
			ex.Complete(dec.Partial(), fmt.Errorf("reading stream: %w", err))
			break
		}
	}

	p.record(ex)
}

func (p *Proxy) record(ex *storage.Exchange) {
	p.logger.Debug("chat exchange finished",
		"id", ex.ID,
		"model", ex.Model,
		"duration_ms", ex.DurationMs,
		"failed", ex.Failed(),
	)

	if p.pool == nil {
		return
	}
	if !p.pool.Enqueue(worker.Job{Exchange: ex}) {
		p.logger.Warn("dropping exchange, worker queue unavailable", "id", ex.ID)
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code <= 299
}
