package sse

import (
	"encoding/json"
	"fmt"
	"io"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// flusher is satisfied by buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// Writer encodes events onto an underlying stream, flushing after each one
// when the stream supports it.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Send writes one event.
func (w *Writer) Send(ev Event) error {
	if _, err := io.WriteString(w.w, ev.String()); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	if f, ok := w.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flushing event: %w", err)
		}
	}
	return nil
}

// SendJSON marshals v as the data of an event of the given type.
func (w *Writer) SendJSON(eventType string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", eventType, err)
	}
	return w.Send(Event{Type: eventType, Data: string(data)})
}

// Comment writes a comment line, which clients ignore. It keeps idle
// connections open.
func (w *Writer) Comment(text string) error {
	if _, err := io.WriteString(w.w, ": "+text+"\n\n"); err != nil {
		return fmt.Errorf("writing comment: %w", err)
	}
	if f, ok := w.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
