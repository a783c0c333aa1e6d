package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// readChunkSize is the read buffer used by Decode. Chunk boundaries do not
// affect the result, only how often updates fire.
const readChunkSize = 32 * 1024

// MalformedResponseError is returned by DecodeBody when a non-streamed body
// is not valid JSON.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response body: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Decode reads r until EOF, feeding every chunk through a fresh Decoder, and
// returns the finished result.
//
// If ctx is cancelled the partial state is discarded and ctx.Err() is
// returned with a nil result. If r fails, the content decoded before the
// failure is returned alongside the error.
func Decode(ctx context.Context, r io.Reader, onUpdate func(Update), opts ...Option) (*Result, error) {
	d := New(append(opts, WithUpdateFunc(onUpdate))...)
	buf := make([]byte, readChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := r.Read(buf)
		if n > 0 {
			_, _ = d.Write(buf[:n])
		}

		if errors.Is(err, io.EOF) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return d.Finish(), nil
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return d.Partial(), fmt.Errorf("reading stream: %w", err)
		}
	}
}

// DecodeBody decodes a non-streamed response. The body is parsed once and is
// both the content source and the terminal record, whether or not it
// carries a done flag.
func DecodeBody(body []byte, opts ...Option) (*Result, error) {
	d := New(opts...)

	text := d.decodeText(body, true)
	rec, err := parseRecord(stripPrefix(text))
	if err != nil {
		return nil, &MalformedResponseError{Body: text, Err: err}
	}

	content := extractDelta(d.extractors, rec)
	d.content.WriteString(content)
	d.terminal = rec
	d.records = 1
	d.finished = true

	res := d.result()
	d.emit(Update{
		Content: res.Content,
		Delta:   content,
		Stats:   res.Stats,
		Done:    true,
	})

	return res, nil
}
