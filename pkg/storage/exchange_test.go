package storage_test

import (
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

var _ = Describe("Exchange", func() {
	var req *llm.ChatRequest

	BeforeEach(func() {
		req = &llm.ChatRequest{
			Model: "llama3.2",
			Messages: []llm.Message{
				llm.NewTextMessage(llm.RoleSystem, "sys"),
				llm.NewTextMessage(llm.RoleUser, "first"),
				llm.NewTextMessage(llm.RoleAssistant, "answer"),
				llm.NewTextMessage(llm.RoleUser, "second"),
			},
			Stream: true,
			Format: json.RawMessage(`{"type":"object"}`),
		}
	})

	It("copies the request into a new exchange", func() {
		ex := storage.NewExchange(req)
		Expect(ex.ID).To(HaveLen(36))
		Expect(ex.Model).To(Equal("llama3.2"))
		Expect(ex.Messages).To(HaveLen(4))
		Expect(ex.Stream).To(BeTrue())
		Expect(string(ex.Format)).To(Equal(`{"type":"object"}`))
		Expect(ex.CreatedAt).To(BeTemporally("~", time.Now(), time.Second))
	})

	It("tolerates a nil request", func() {
		ex := storage.NewExchange(nil)
		Expect(ex.ID).NotTo(BeEmpty())
		Expect(ex.Model).To(BeEmpty())
	})

	It("returns the last user message as prompt", func() {
		Expect(storage.NewExchange(req).Prompt()).To(Equal("second"))
		Expect((&storage.Exchange{}).Prompt()).To(BeEmpty())
	})

	Describe("Complete", func() {
		It("records content, stats and the terminal record", func() {
			res, err := decoder.DecodeBody([]byte(`{"message":{"content":"hi"},"done":true,"eval_count":2,"eval_duration":1000000000}`))
			Expect(err).NotTo(HaveOccurred())

			ex := storage.NewExchange(req)
			ex.Complete(res, nil)

			Expect(ex.Content).To(Equal("hi"))
			Expect(ex.Stats.EvalRate.String()).To(Equal("2.00"))
			Expect(string(ex.Raw)).To(ContainSubstring(`"done":true`))
			Expect(ex.Failed()).To(BeFalse())
			Expect(ex.DurationMs).To(BeNumerically(">=", 0))
		})

		It("records the error alongside partial content", func() {
			ex := storage.NewExchange(req)
			ex.Complete(&decoder.Result{Content: "par"}, errors.New("connection reset"))

			Expect(ex.Content).To(Equal("par"))
			Expect(ex.Error).To(Equal("connection reset"))
			Expect(ex.Failed()).To(BeTrue())
			Expect(ex.Raw).To(BeNil())
		})

		It("accepts a nil result", func() {
			ex := storage.NewExchange(req)
			ex.Complete(nil, errors.New("HTTP 404"))
			Expect(ex.Content).To(BeEmpty())
			Expect(ex.Error).To(Equal("HTTP 404"))
		})
	})

	It("formats NotFoundError", func() {
		Expect(storage.NotFoundError{ID: "abc"}.Error()).To(Equal("exchange not found: abc"))
		Expect(storage.NotFoundError{}.Error()).To(Equal("exchange not found"))
	})
})
