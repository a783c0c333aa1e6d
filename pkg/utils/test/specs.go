package testutils

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/storage"
)

// DescribeDriver registers the behaviour every storage.Driver must have.
// open is called before each spec and must return an empty driver.
func DescribeDriver(open func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		base   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		driver = open()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("Put and Get", func() {
		It("stores and retrieves an exchange", func() {
			ex := NewTestExchange("ex-1", "hello", base)
			ex.Format = []byte(`{"type":"object"}`)
			Expect(driver.Put(ctx, ex)).To(Succeed())

			got, err := driver.Get(ctx, "ex-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Model).To(Equal("test-model"))
			Expect(got.Messages).To(Equal(ex.Messages))
			Expect(string(got.Format)).To(Equal(`{"type":"object"}`))
			Expect(got.Stream).To(BeTrue())
			Expect(got.Content).To(Equal("reply to hello"))
			Expect(string(got.Raw)).To(Equal(string(ex.Raw)))
			Expect(got.Stats).NotTo(BeNil())
			Expect(*got.Stats.EvalCount).To(Equal(int64(4)))
			Expect(got.Stats.EvalRate.String()).To(Equal("2.00"))
			Expect(got.CreatedAt.Equal(base)).To(BeTrue())
			Expect(got.DurationMs).To(Equal(int64(2100)))
			Expect(got.Error).To(BeEmpty())
		})

		It("keeps failed exchanges with their partial content", func() {
			ex := NewTestExchange("ex-err", "hi", base)
			ex.Stats = nil
			ex.Raw = nil
			ex.Content = "partial"
			ex.Error = "HTTP 500"
			Expect(driver.Put(ctx, ex)).To(Succeed())

			got, err := driver.Get(ctx, "ex-err")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Failed()).To(BeTrue())
			Expect(got.Content).To(Equal("partial"))
			Expect(got.Stats).To(BeNil())
			Expect(got.Raw).To(BeEmpty())
		})

		It("replaces an exchange stored twice", func() {
			ex := NewTestExchange("ex-1", "hello", base)
			Expect(driver.Put(ctx, ex)).To(Succeed())

			ex.Content = "updated"
			Expect(driver.Put(ctx, ex)).To(Succeed())

			got, err := driver.Get(ctx, "ex-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Content).To(Equal("updated"))

			n, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("returns NotFoundError for unknown IDs", func() {
			_, err := driver.Get(ctx, "missing")
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal("missing"))
		})

		It("rejects nil and ID-less exchanges", func() {
			Expect(driver.Put(ctx, nil)).NotTo(Succeed())
			Expect(driver.Put(ctx, &storage.Exchange{})).NotTo(Succeed())
		})
	})

	Describe("List and Count", func() {
		BeforeEach(func() {
			for i, id := range []string{"a", "b", "c"} {
				ex := NewTestExchange(id, id, base.Add(time.Duration(i)*time.Minute))
				Expect(driver.Put(ctx, ex)).To(Succeed())
			}
		})

		It("lists newest first", func() {
			list, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(3))
			Expect(list[0].ID).To(Equal("c"))
			Expect(list[1].ID).To(Equal("b"))
			Expect(list[2].ID).To(Equal("a"))
		})

		It("honors the limit", func() {
			list, err := driver.List(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal("c"))
		})

		It("counts exchanges", func() {
			n, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(3))
		})
	})

	It("lists nothing when empty", func() {
		list, err := driver.List(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(BeEmpty())
	})
}
