package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/logger"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/sse"
	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/storage/inmemory"
	"github.com/papercomputeco/ollamaui/pkg/worker"
)

var _ = Describe("streamChat keep-alive", func() {
	var (
		upstream  *httptest.Server
		cancelled chan struct{}
		release   chan struct{}
		driver    *inmemory.Driver
		pool      *worker.Pool
		server    *Server
		client    *ollama.Client
		req       *llm.ChatRequest
	)

	BeforeEach(func() {
		cancelled = make(chan struct{})
		release = make(chan struct{})

		// Answers only after release is closed, like a model still loading.
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
				close(cancelled)
				return
			case <-release:
			}
			w.Header().Set("Content-Type", "application/x-ndjson")
			_, _ = io.WriteString(w, `{"message":{"content":"hi"},"done":true,"eval_count":2,"eval_duration":1000000000}`+"\n")
		}))

		driver = inmemory.NewDriver()
		var err error
		pool, err = worker.NewPool(&worker.Config{Driver: driver})
		Expect(err).NotTo(HaveOccurred())

		client = ollama.NewClient(ollama.Config{BaseURL: upstream.URL})
		server, err = NewServer(Config{KeepAlive: 10 * time.Millisecond}, client, driver, pool, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		req = &llm.ChatRequest{
			Model:    "llama3.2",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
			Stream:   true,
		}
	})

	AfterEach(func() {
		upstream.Close()
	})

	It("cancels the upstream request when the browser is gone before the first delta", func() {
		pr, pw := io.Pipe()
		Expect(pr.Close()).To(Succeed())

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			server.streamChat(client, req, storage.NewExchange(req), pw)
		}()

		Eventually(cancelled, 2*time.Second).Should(BeClosed())
		Eventually(finished, 2*time.Second).Should(BeClosed())

		pool.Close()
		count, err := driver.Count(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
	})

	It("sends keep-alive comments while waiting and then the reply", func() {
		pr, pw := io.Pipe()
		go server.streamChat(client, req, storage.NewExchange(req), pw)

		time.AfterFunc(100*time.Millisecond, func() { close(release) })

		var raw strings.Builder
		events, err := sse.NewTeeReader(pr, &raw).All()
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.String()).To(ContainSubstring(": keep-alive"))

		types := make([]string, 0, len(events))
		for _, ev := range events {
			types = append(types, ev.Type)
		}
		Expect(types).To(ContainElement(EventDone))
		Expect(types).NotTo(ContainElement(EventError))

		pool.Close()
		Eventually(func() (int, error) { return driver.Count(context.Background()) }).Should(Equal(1))
	})
})
