package decoder_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/logger"
)

// feedChunks writes stream to a fresh decoder in chunks of the given size.
func feedChunks(stream string, size int) *decoder.Result {
	d := decoder.New()
	data := []byte(stream)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		_, err := d.Write(data[start:end])
		Expect(err).NotTo(HaveOccurred())
	}
	return d.Finish()
}

var _ = Describe("Decoder", func() {
	Describe("content accumulation", func() {
		It("concatenates message content deltas and reports the eval rate", func() {
			stream := `{"message":{"content":"Hel"}}` + "\n" +
				`{"message":{"content":"lo"}}` + "\n" +
				`{"done":true,"eval_count":10,"eval_duration":2000000000}` + "\n"

			res := feedChunks(stream, len(stream))
			Expect(res.Content).To(Equal("Hello"))
			Expect(res.Stats).NotTo(BeNil())
			Expect(res.Stats.EvalRate).NotTo(BeNil())
			Expect(res.Stats.EvalRate.String()).To(Equal("5.00"))
			Expect(res.Stats.PromptRate).To(BeNil())
		})

		It("produces the same content for every chunk size", func() {
			stream := `{"message":{"role":"assistant","content":"héllo "}}` + "\n" +
				`{"message":{"content":"世界 "}}` + "\n" +
				"data: " + `{"content":"🎉"}` + "\n" +
				`{"response":" ok"}` + "\n" +
				`{"done":true,"eval_count":3,"eval_duration":1000000000}` + "\n"

			whole := feedChunks(stream, len(stream))
			Expect(whole.Content).To(Equal("héllo 世界 🎉 ok"))

			for size := 1; size < len(stream); size++ {
				res := feedChunks(stream, size)
				Expect(res.Content).To(Equal(whole.Content), "chunk size %d", size)
				Expect(res.Stats.EvalRate.String()).To(Equal("3.00"), "chunk size %d", size)
			}
		})

		It("carries a multi-byte character split across two writes", func() {
			euro := []byte("€")
			Expect(euro).To(HaveLen(3))

			d := decoder.New()
			_, _ = d.Write([]byte(`{"content":"`))
			_, _ = d.Write(euro[:1])
			_, _ = d.Write(euro[1:2])
			_, _ = d.Write(append(euro[2:], []byte("\"}\n")...))

			Expect(d.Content()).To(Equal("€"))
		})

		It("replaces a truncated sequence left at end of stream", func() {
			d := decoder.New()
			_, _ = d.Write([]byte("{\"content\":\"a\"}\n\xe2\x82"))

			res := d.Finish()
			Expect(res.Content).To(Equal("a"))
			Expect(res.Malformed).To(Equal(1))
		})

		It("ignores empty deltas", func() {
			var updates []decoder.Update
			d := decoder.New(decoder.WithUpdateFunc(func(u decoder.Update) {
				updates = append(updates, u)
			}))
			_, _ = d.Write([]byte(`{"message":{"content":""}}` + "\n"))

			Expect(d.Content()).To(BeEmpty())
			Expect(updates).To(BeEmpty())
		})
	})

	Describe("line splitting", func() {
		It("does not emit a record until its line is terminated", func() {
			d := decoder.New()
			_, _ = d.Write([]byte(`{"content":"par`))
			Expect(d.Content()).To(BeEmpty())

			_, _ = d.Write([]byte(`tial"}`))
			Expect(d.Content()).To(BeEmpty())

			_, _ = d.Write([]byte("\n"))
			Expect(d.Content()).To(Equal("partial"))
		})

		It("reassembles a long record delivered a byte at a time", func() {
			long := strings.Repeat("ab", 32*1024)
			stream := `{"message":{"content":"` + long + `"}}` + "\n" +
				`{"message":{"content":"!"}}` + "\n"

			res := feedChunks(stream, 1)
			Expect(res.Content).To(Equal(long + "!"))
			Expect(res.Records).To(Equal(2))
			Expect(res.Malformed).To(BeZero())
		})

		It("splits several lines delivered in one write", func() {
			d := decoder.New()
			_, err := d.Write([]byte(`{"content":"a"}` + "\n" + `{"content":"b"}` + "\n" + `{"content":`))
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Content()).To(Equal("ab"))

			_, err = d.Write([]byte(`"c"}` + "\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Content()).To(Equal("abc"))
		})

		It("skips blank and whitespace-only lines", func() {
			res := feedChunks("\n   \n\t\n"+`{"content":"x"}`+"\n\n", 4)
			Expect(res.Content).To(Equal("x"))
			Expect(res.Records).To(Equal(1))
			Expect(res.Malformed).To(BeZero())
		})

		It("tolerates CRLF line endings", func() {
			res := feedChunks(`{"content":"a"}`+"\r\n"+`{"content":"b"}`+"\r\n", 5)
			Expect(res.Content).To(Equal("ab"))
		})
	})

	Describe("malformed records", func() {
		It("skips a non-JSON line and keeps decoding", func() {
			res := feedChunks("not json at all\n"+`{"message":{"content":"valid"}}`+"\n", 7)
			Expect(res.Content).To(Equal("valid"))
			Expect(res.Malformed).To(Equal(1))
			Expect(res.Records).To(Equal(1))
		})

		It("keeps deltas on both sides of a bad line", func() {
			stream := `{"content":"before "}` + "\n" +
				`{"content": broken` + "\n" +
				`{"content":"after"}` + "\n"

			res := feedChunks(stream, 3)
			Expect(res.Content).To(Equal("before after"))
		})

		It("rejects a line holding two JSON values", func() {
			res := feedChunks(`{"content":"a"} {"content":"b"}`+"\n", 64)
			Expect(res.Content).To(BeEmpty())
			Expect(res.Malformed).To(Equal(1))
		})

		It("logs skipped records at debug level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))

			d := decoder.New(decoder.WithLogger(l))
			_, _ = d.Write([]byte("garbage\n"))

			Expect(buf.String()).To(ContainSubstring("skipping malformed record"))
		})
	})

	Describe("terminal record", func() {
		It("adopts the last done record", func() {
			stream := `{"done":true,"eval_count":1,"eval_duration":1000000000}` + "\n" +
				`{"done":true,"eval_count":8,"eval_duration":2000000000}` + "\n"

			res := feedChunks(stream, len(stream))
			Expect(res.Stats.EvalRate.String()).To(Equal("4.00"))
		})

		It("ignores records with done set to false", func() {
			res := feedChunks(`{"done":false,"eval_count":1,"eval_duration":1}`+"\n", 64)
			Expect(res.Terminal).To(BeNil())
			Expect(res.Stats).To(BeNil())
		})

		It("parses an unterminated leftover as the terminal record", func() {
			stream := `{"message":{"content":"hi"}}` + "\n" +
				`{"done":true,"prompt_eval_count":5,"prompt_eval_duration":1000000000}`

			res := feedChunks(stream, 6)
			Expect(res.Content).To(Equal("hi"))
			Expect(res.Terminal).NotTo(BeNil())
			Expect(res.Stats.PromptRate).NotTo(BeNil())
			Expect(res.Stats.PromptRate.String()).To(Equal("5.00"))
		})

		It("lets a parseable leftover override an earlier done record", func() {
			stream := `{"done":true,"eval_count":10,"eval_duration":1000000000}` + "\n" +
				`{"eval_count":2,"eval_duration":1000000000}`

			res := feedChunks(stream, len(stream))
			Expect(res.Terminal.Done()).To(BeFalse())
			Expect(res.Stats.EvalRate.String()).To(Equal("2.00"))
		})

		It("strips the data prefix from the leftover", func() {
			res := feedChunks(`data: {"done":true,"eval_count":4,"eval_duration":2000000000}`, 10)
			Expect(res.Stats.EvalRate.String()).To(Equal("2.00"))
		})

		It("keeps the earlier done record when the leftover is not JSON", func() {
			stream := `{"done":true,"eval_count":6,"eval_duration":3000000000}` + "\n" + `{"trunc`

			res := feedChunks(stream, len(stream))
			Expect(res.Stats.EvalRate.String()).To(Equal("2.00"))
			Expect(res.Malformed).To(Equal(1))
		})

		It("returns no statistics when nothing terminal was seen", func() {
			res := feedChunks(`{"content":"only text"}`+"\n", 64)
			Expect(res.Content).To(Equal("only text"))
			Expect(res.Terminal).To(BeNil())
			Expect(res.Stats).To(BeNil())
		})

		It("serializes the terminal record as its raw JSON", func() {
			res := feedChunks(`data: {"done":true,"model":"m"}`+"\n", 64)
			raw, err := res.Terminal.MarshalJSON()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal(`{"done":true,"model":"m"}`))
		})
	})

	Describe("updates", func() {
		It("emits a snapshot per delta and a final done update", func() {
			var updates []decoder.Update
			d := decoder.New(decoder.WithUpdateFunc(func(u decoder.Update) {
				updates = append(updates, u)
			}))

			_, _ = d.Write([]byte(`{"content":"a"}` + "\n" + `{"content":"b"}` + "\n"))
			_, _ = d.Write([]byte(`{"done":true,"eval_count":2,"eval_duration":1000000000}` + "\n"))
			d.Finish()

			Expect(updates).To(HaveLen(4))
			Expect(updates[0].Content).To(Equal("a"))
			Expect(updates[1].Content).To(Equal("ab"))
			Expect(updates[1].Delta).To(Equal("b"))
			Expect(updates[2].Delta).To(BeEmpty())
			Expect(updates[2].Stats).NotTo(BeNil())
			Expect(updates[3].Done).To(BeTrue())
			Expect(updates[3].Stats.EvalRate.String()).To(Equal("2.00"))
		})

		It("never shrinks content across updates", func() {
			var contents []string
			d := decoder.New(decoder.WithUpdateFunc(func(u decoder.Update) {
				contents = append(contents, u.Content)
			}))

			for _, part := range []string{"one ", "two ", "three"} {
				_, _ = d.Write([]byte(`{"content":"` + part + `"}` + "\n"))
			}

			for i := 1; i < len(contents); i++ {
				Expect(strings.HasPrefix(contents[i], contents[i-1])).To(BeTrue())
			}
		})

		It("returns the same result when finished twice", func() {
			d := decoder.New()
			_, _ = d.Write([]byte(`{"content":"x"}`))
			first := d.Finish()
			second := d.Finish()
			Expect(second.Content).To(Equal(first.Content))
			Expect(second.Records).To(Equal(first.Records))
		})
	})

	Describe("custom extractors", func() {
		It("tries extractors in the configured order", func() {
			thinking := func(fields map[string]any) (string, bool) {
				s, ok := fields["thinking"].(string)
				return s, ok
			}

			d := decoder.New(decoder.WithExtractors(thinking, decoder.Content))
			_, _ = d.Write([]byte(`{"thinking":"hmm","content":"ignored"}` + "\n" + `{"content":"yes"}` + "\n"))

			Expect(d.Content()).To(Equal("hmmyes"))
		})
	})
})
