package worker_test

import (
	"bytes"
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/eventstream"
	"github.com/papercomputeco/ollamaui/pkg/logger"
	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/ollamaui/pkg/utils/test"
	"github.com/papercomputeco/ollamaui/pkg/worker"
)

var _ = Describe("Worker Pool", func() {
	var (
		driver    *inmemory.Driver
		publisher *testutils.MockPublisher
		ctx       context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		publisher = testutils.NewMockPublisher()
		ctx = context.Background()
	})

	newPool := func(c *worker.Config) *worker.Pool {
		wp, err := worker.NewPool(c)
		Expect(err).NotTo(HaveOccurred())
		return wp
	}

	Describe("NewPool", func() {
		It("requires a driver", func() {
			_, err := worker.NewPool(&worker.Config{})
			Expect(err).To(HaveOccurred())
		})

		It("fills in defaults", func() {
			c := &worker.Config{Driver: driver}
			wp := newPool(c)
			defer wp.Close()

			Expect(c.NumWorkers).To(BeNumerically(">", 0))
			Expect(c.QueueSize).To(Equal(uint(256)))
			Expect(c.Publisher).NotTo(BeNil())
			Expect(c.Logger).NotTo(BeNil())
		})
	})

	Describe("Enqueue", func() {
		It("stores and then publishes every exchange", func() {
			wp := newPool(&worker.Config{Driver: driver, Publisher: publisher})

			for i := range 5 {
				ex := testutils.NewTestExchange(fmt.Sprintf("ex-%d", i), "hi", time.Now())
				Expect(wp.Enqueue(worker.Job{Exchange: ex})).To(BeTrue())
			}
			wp.Close()

			n, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(5))

			events := publisher.Events()
			Expect(events).To(HaveLen(5))
			for _, ev := range events {
				Expect(ev.EventType).To(Equal(eventstream.EventTypeExchangeCompleted))
				_, err := driver.Get(ctx, ev.Exchange.ID)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("rejects nil exchanges", func() {
			wp := newPool(&worker.Config{Driver: driver})
			defer wp.Close()
			Expect(wp.Enqueue(worker.Job{})).To(BeFalse())
		})

		It("drops jobs after Close", func() {
			wp := newPool(&worker.Config{Driver: driver})
			wp.Close()

			ok := wp.Enqueue(worker.Job{Exchange: testutils.NewTestExchange("late", "hi", time.Now())})
			Expect(ok).To(BeFalse())
		})

		It("tolerates Close being called twice", func() {
			wp := newPool(&worker.Config{Driver: driver})
			wp.Close()
			Expect(wp.Close).NotTo(Panic())
		})
	})

	Describe("failures", func() {
		It("does not publish when storing fails", func() {
			var logs bytes.Buffer
			wp := newPool(&worker.Config{
				Driver:    testutils.FailingDriver{},
				Publisher: publisher,
				Logger:    logger.New(logger.WithWriter(&logs), logger.WithJSON(true)),
			})

			Expect(wp.Enqueue(worker.Job{Exchange: testutils.NewTestExchange("x", "hi", time.Now())})).To(BeTrue())
			wp.Close()

			Expect(publisher.Events()).To(BeEmpty())
			Expect(logs.String()).To(ContainSubstring("storing exchange failed"))
		})

		It("keeps the stored exchange when publishing fails", func() {
			publisher.Fail = true
			wp := newPool(&worker.Config{Driver: driver, Publisher: publisher})

			Expect(wp.Enqueue(worker.Job{Exchange: testutils.NewTestExchange("x", "hi", time.Now())})).To(BeTrue())
			wp.Close()

			got, err := driver.Get(ctx, "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeAssignableToTypeOf(&storage.Exchange{}))
		})
	})
})
