// Package decoder incrementally decodes newline-delimited JSON chat streams.
//
// Bytes arrive in arbitrary chunks. The Decoder carries split UTF-8 sequences
// and partial lines across chunk boundaries, skips malformed lines, appends
// each record's text delta to the accumulated content, and remembers the
// terminal record that carries the final statistics.
//
// A Decoder holds the state of exactly one response. Create a new one for
// every request.
package decoder

import (
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/papercomputeco/ollamaui/pkg/logger"
	"github.com/papercomputeco/ollamaui/pkg/utils"
)

// transformBufSize is large enough for any single decoded rune, so the
// transformer always makes progress.
const transformBufSize = 4096

// Update is a snapshot handed to the update callback whenever the decoder
// appends content or adopts a terminal record.
type Update struct {
	// Content is the accumulated content so far.
	Content string `json:"content"`

	// Delta is the text appended by this update. It is empty for updates that
	// only carry statistics.
	Delta string `json:"delta,omitempty"`

	// Stats is derived from the current terminal record, if any.
	Stats *Stats `json:"stats,omitempty"`

	// Done is set on the final update emitted by Finish.
	Done bool `json:"done,omitempty"`
}

// Result is the outcome of one decoded response.
type Result struct {
	Content   string  `json:"content"`
	Terminal  *Record `json:"terminal,omitempty"`
	Stats     *Stats  `json:"stats,omitempty"`
	Records   int     `json:"records"`
	Malformed int     `json:"malformed"`
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used to report skipped records.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithExtractors replaces DefaultExtractors.
func WithExtractors(extractors ...Extractor) Option {
	return func(d *Decoder) {
		d.extractors = extractors
	}
}

// WithUpdateFunc registers a callback invoked synchronously on every update.
func WithUpdateFunc(fn func(Update)) Option {
	return func(d *Decoder) {
		d.onUpdate = fn
	}
}

// Decoder is the per-request stream decoding state.
type Decoder struct {
	utf8    transform.Transformer
	pending []byte
	scratch []byte

	// buf holds decoded text that has not been terminated by a newline yet.
	buf strings.Builder

	content  strings.Builder
	terminal *Record

	records   int
	malformed int
	finished  bool

	extractors []Extractor
	onUpdate   func(Update)
	logger     *slog.Logger
}

// New returns a Decoder with empty state.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		utf8:       unicode.UTF8.NewDecoder(),
		scratch:    make([]byte, transformBufSize),
		extractors: DefaultExtractors,
		logger:     logger.Nop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Write feeds one chunk into the decoder. It never fails; malformed input
// is skipped record by record.
func (d *Decoder) Write(chunk []byte) (int, error) {
	if d.finished {
		return len(chunk), nil
	}

	d.feed(d.decodeText(chunk, false))
	return len(chunk), nil
}

// Content returns the content accumulated so far.
func (d *Decoder) Content() string {
	return d.content.String()
}

// Terminal returns the current terminal record candidate, or nil.
func (d *Decoder) Terminal() *Record {
	return d.terminal
}

// Finish ends the stream. The leftover partial line is parsed as a final
// candidate: if it is valid JSON it becomes the terminal record, replacing
// any done record seen earlier. Calling Finish more than once returns the
// same result.
func (d *Decoder) Finish() *Result {
	if d.finished {
		return d.result()
	}

	d.feed(d.decodeText(nil, true))
	d.finished = true

	leftover := d.buf.String()
	d.buf.Reset()

	if strings.TrimSpace(leftover) != "" {
		rec, err := parseRecord(stripPrefix(leftover))
		if err != nil {
			d.malformed++
			d.logger.Debug("discarding unparseable stream leftover",
				"error", err,
				"leftover", utils.Truncate(leftover, 120),
			)
		} else {
			d.records++
			if d.terminal != nil {
				d.logger.Debug("stream leftover overrides earlier terminal record")
			}
			d.terminal = rec
		}
	}

	res := d.result()
	d.emit(Update{
		Content: res.Content,
		Stats:   res.Stats,
		Done:    true,
	})

	return res
}

// Partial returns what has been decoded so far without consuming the
// leftover. It is used when the transport fails mid-stream.
func (d *Decoder) Partial() *Result {
	return d.result()
}

func (d *Decoder) result() *Result {
	return &Result{
		Content:   d.content.String(),
		Terminal:  d.terminal,
		Stats:     NewStats(d.terminal),
		Records:   d.records,
		Malformed: d.malformed,
	}
}

// decodeText runs chunk through the UTF-8 decoder. Trailing bytes of an
// incomplete sequence are held back until the next chunk, or replaced with
// U+FFFD when atEOF is set.
func (d *Decoder) decodeText(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}
	if len(src) == 0 {
		return ""
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := d.utf8.Transform(d.scratch, src, atEOF)
		out.Write(d.scratch[:nDst])
		src = src[nSrc:]

		switch err {
		case transform.ErrShortDst:
			continue
		case transform.ErrShortSrc:
			d.pending = append([]byte(nil), src...)
		}

		return out.String()
	}
}

// feed appends text to the line buffer and handles every completed line.
func (d *Decoder) feed(text string) {
	if text == "" {
		return
	}

	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			d.buf.WriteString(text)
			return
		}

		line := text[:i]
		if d.buf.Len() > 0 {
			d.buf.WriteString(line)
			line = d.buf.String()
			d.buf.Reset()
		}
		text = text[i+1:]

		d.handleLine(line)
	}
}

func (d *Decoder) handleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	rec, err := parseRecord(stripPrefix(line))
	if err != nil {
		d.malformed++
		d.logger.Debug("skipping malformed record",
			"error", err,
			"line", utils.Truncate(line, 120),
		)
		return
	}
	d.records++

	delta := extractDelta(d.extractors, rec)
	if delta != "" {
		d.content.WriteString(delta)
	}

	done := rec.Done()
	if done {
		d.terminal = rec
	}

	if delta == "" && !done {
		return
	}

	d.emit(Update{
		Content: d.content.String(),
		Delta:   delta,
		Stats:   NewStats(d.terminal),
	})
}

func (d *Decoder) emit(u Update) {
	if d.onUpdate != nil {
		d.onUpdate(u)
	}
}
