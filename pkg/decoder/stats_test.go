package decoder_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
)

func int64Ptr(n int64) *int64 {
	return &n
}

var _ = Describe("DerivedRate", func() {
	It("divides the count by the duration in seconds", func() {
		r := decoder.DerivedRate(int64Ptr(10), int64Ptr(2_000_000_000))
		Expect(r).NotTo(BeNil())
		Expect(float64(*r)).To(BeNumerically("~", 5.0))
		Expect(r.String()).To(Equal("5.00"))
	})

	It("rounds to two decimals", func() {
		r := decoder.DerivedRate(int64Ptr(1), int64Ptr(3_000_000_000))
		Expect(r.String()).To(Equal("0.33"))
	})

	DescribeTable("is undefined without a usable count and duration",
		func(count, duration *int64) {
			Expect(decoder.DerivedRate(count, duration)).To(BeNil())
		},
		Entry("missing count", nil, int64Ptr(1_000_000_000)),
		Entry("missing duration", int64Ptr(10), nil),
		Entry("zero count", int64Ptr(0), int64Ptr(1_000_000_000)),
		Entry("zero duration", int64Ptr(10), int64Ptr(0)),
		Entry("both missing", nil, nil),
	)
})

var _ = Describe("Stats", func() {
	It("reads counters off the terminal record", func() {
		res := feedChunks(`{"done":true,"total_duration":5000,"load_duration":100,"prompt_eval_count":5,"prompt_eval_duration":1000000000,"eval_count":7}`+"\n", 64)
		Expect(res.Stats).NotTo(BeNil())
		Expect(*res.Stats.TotalDuration).To(Equal(int64(5000)))
		Expect(*res.Stats.LoadDuration).To(Equal(int64(100)))
		Expect(*res.Stats.EvalCount).To(Equal(int64(7)))
		Expect(res.Stats.EvalDuration).To(BeNil())
		Expect(res.Stats.EvalRate).To(BeNil())
		Expect(res.Stats.PromptRate.String()).To(Equal("5.00"))
	})

	It("ignores counters of the wrong type", func() {
		res := feedChunks(`{"done":true,"eval_count":"ten","eval_duration":1000000000}`+"\n", 64)
		Expect(res.Stats.EvalCount).To(BeNil())
		Expect(res.Stats.EvalRate).To(BeNil())
	})

	It("accepts fractional counters", func() {
		res := feedChunks(`{"done":true,"eval_count":4.0,"eval_duration":2e9}`+"\n", 64)
		Expect(res.Stats.EvalRate.String()).To(Equal("2.00"))
	})

	It("derives a rate from a sub-nanosecond duration", func() {
		res := feedChunks(`{"done":true,"eval_count":1,"eval_duration":0.5}`+"\n", 64)
		Expect(*res.Stats.EvalDuration).To(Equal(int64(0)))
		Expect(res.Stats.EvalRate).NotTo(BeNil())
		Expect(res.Stats.EvalRate.String()).To(Equal("2000000000.00"))
	})

	It("leaves counters beyond the int64 range unset", func() {
		res := feedChunks(`{"done":true,"eval_count":1e30,"eval_duration":1000000000}`+"\n", 64)
		Expect(res.Stats.EvalCount).To(BeNil())
		Expect(res.Stats.EvalRate).NotTo(BeNil())
		Expect(float64(*res.Stats.EvalRate)).To(BeNumerically("~", 1e30))
	})

	It("marshals rates with two decimals and omits missing ones", func() {
		res := feedChunks(`{"done":true,"eval_count":10,"eval_duration":4000000000}`+"\n", 64)

		data, err := json.Marshal(res.Stats)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"eval_tokens_per_sec":2.50`))
		Expect(string(data)).NotTo(ContainSubstring("prompt_tokens_per_sec"))
	})
})
