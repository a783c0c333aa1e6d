package sse_test

import (
	"bytes"
	"errors"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/sse"
)

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		It("parses a single event then reports the end", func() {
			r := sse.NewReader(strings.NewReader("data: hello world\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(*ev).To(Equal(sse.Event{Data: "hello world"}))

			ev, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("reads event type and id", func() {
			r := sse.NewReader(strings.NewReader("id: 42\nevent: delta\ndata: {\"delta\":\"Hi\"}\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.ID).To(Equal("42"))
			Expect(ev.Type).To(Equal("delta"))
			Expect(ev.Data).To(Equal(`{"delta":"Hi"}`))
		})

		It("joins multiple data lines with newline", func() {
			r := sse.NewReader(strings.NewReader("data: one\ndata:\ndata: three\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("one\n\nthree"))
		})

		It("strips at most one space after the colon", func() {
			r := sse.NewReader(strings.NewReader("data:no-space\n\ndata:  two\n\n"))

			events, err := r.All()
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Data).To(Equal("no-space"))
			Expect(events[1].Data).To(Equal(" two"))
		})

		It("skips comments, keep-alives and unknown fields", func() {
			r := sse.NewReader(strings.NewReader(": ping\n\n\nretry: 3000\nfoo: bar\ndata: hello\n\n"))

			events, err := r.All()
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal([]sse.Event{{Data: "hello"}}))
		})

		It("yields an event when the stream ends without a blank line", func() {
			r := sse.NewReader(strings.NewReader("event: done\ndata: bye"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Type).To(Equal("done"))
			Expect(ev.Data).To(Equal("bye"))

			ev, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("returns nil for empty input", func() {
			ev, err := sse.NewReader(strings.NewReader("")).Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("surfaces read errors", func() {
			boom := errors.New("connection reset")
			r := sse.NewReader(iotest.ErrReader(boom))

			_, err := r.Next()
			Expect(err).To(MatchError(boom))
		})
	})

	Describe("tee", func() {
		It("copies every line verbatim to the destination", func() {
			input := ": keep-alive\n\nevent: delta\ndata: {\"delta\":\"Hi\"}\n\nevent: done\ndata: {}\n\n"
			var dst bytes.Buffer
			r := sse.NewTeeReader(strings.NewReader(input), &dst)

			events, err := r.All()
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(dst.String()).To(Equal(input))
		})
	})
})
