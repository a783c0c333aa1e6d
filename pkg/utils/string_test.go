package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is a ..."))
	})

	It("never splits a multi-byte character", func() {
		Expect(Truncate("héllo wörld", 2)).To(Equal("hé..."))
	})

	It("counts runes rather than bytes", func() {
		Expect(Truncate("日本語", 3)).To(Equal("日本語"))
	})
})

var _ = Describe("UserAgent", func() {
	It("includes the build version", func() {
		Expect(UserAgent()).To(Equal("ollamaui/" + Version))
	})
})
