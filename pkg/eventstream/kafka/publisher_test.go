package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/ollamaui/pkg/eventstream"
	"github.com/papercomputeco/ollamaui/pkg/eventstream/kafka"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w *fakeWriter
		p *kafka.Publisher
	)

	BeforeEach(func() {
		w = &fakeWriter{}
		p = kafka.NewPublisherWithWriter(w)
	})

	It("satisfies eventstream.Publisher", func() {
		var _ eventstream.Publisher = p
	})

	It("writes one JSON message keyed by exchange ID", func() {
		ev := eventstream.NewExchangeCompletedEvent(&storage.Exchange{ID: "ex-1", Model: "llama3.2"})

		Expect(p.PublishExchange(context.Background(), ev)).To(Succeed())
		Expect(w.messages).To(HaveLen(1))

		msg := w.messages[0]
		Expect(string(msg.Key)).To(Equal("ex-1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{
			Key:   "event_type",
			Value: []byte(eventstream.EventTypeExchangeCompleted),
		}))

		var decoded eventstream.ExchangeCompletedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(ev.EventID))
		Expect(decoded.Exchange.Model).To(Equal("llama3.2"))
	})

	It("falls back to the event ID as key", func() {
		msg, err := kafka.Message(eventstream.NewExchangeCompletedEvent(nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Key).NotTo(BeEmpty())
	})

	It("rejects nil events", func() {
		Expect(p.PublishExchange(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(w.messages).To(BeEmpty())
	})

	It("wraps writer errors", func() {
		w.err = errors.New("leader not available")
		err := p.PublishExchange(context.Background(), eventstream.NewExchangeCompletedEvent(nil))
		Expect(err).To(MatchError(w.err))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})

	Describe("NewPublisher", func() {
		It("requires brokers", func() {
			_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
			Expect(err).To(HaveOccurred())
		})

		It("requires a topic", func() {
			_, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
			Expect(err).To(HaveOccurred())
		})

		It("builds a writer without connecting", func() {
			pub, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
			Expect(err).NotTo(HaveOccurred())
			Expect(pub.Close()).To(Succeed())
		})
	})
})
