package compose_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/compose"
)

var _ = Describe("Defaults", func() {
	defaults := compose.Defaults{Model: "llama3.2", System: "be terse"}

	It("fills a blank model and system prompt", func() {
		in := defaults.Apply(compose.Input{Model: "  ", Prompt: "hi"})

		Expect(in.Model).To(Equal("llama3.2"))
		Expect(in.System).To(Equal("be terse"))
		Expect(in.Prompt).To(Equal("hi"))
	})

	It("keeps what the user typed", func() {
		in := defaults.Apply(compose.Input{Model: "gemma3:1b", System: "be verbose"})

		Expect(in.Model).To(Equal("gemma3:1b"))
		Expect(in.System).To(Equal("be verbose"))
	})

	Describe("DefaultsHolder", func() {
		It("swaps defaults", func() {
			h := compose.NewDefaultsHolder(defaults)
			Expect(h.Load()).To(Equal(defaults))

			h.Store(compose.Defaults{Model: "qwen3"})
			Expect(h.Load().Model).To(Equal("qwen3"))
			Expect(h.Load().System).To(BeEmpty())
		})

		It("is empty when nil", func() {
			var h *compose.DefaultsHolder
			Expect(h.Load()).To(Equal(compose.Defaults{}))
		})
	})
})
