package sse

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 1024 * 1024

// Reader parses events from a stream. When a tee writer is set, every line
// read is copied to it verbatim, comments and delimiters included.
type Reader struct {
	scanner *bufio.Scanner
	tee     io.Writer

	ev        Event
	dataLines int
	started   bool
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	return NewTeeReader(src, nil)
}

// NewTeeReader returns a Reader over src that copies raw bytes to dest.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Reader{scanner: scanner, tee: dest}
}

// Next blocks until a whole event has been read. It returns nil, nil once the
// source is exhausted. A final event without a trailing blank line is still
// returned.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if r.tee != nil {
			if _, err := io.WriteString(r.tee, line+"\n"); err != nil {
				return nil, err
			}
		}

		switch {
		case line == "":
			if r.started {
				return r.take(), nil
			}
		case strings.HasPrefix(line, ":"):
		default:
			r.field(line)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if r.started {
		return r.take(), nil
	}
	return nil, nil
}

// All reads every remaining event.
func (r *Reader) All() ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if err != nil {
			return events, err
		}
		if ev == nil {
			return events, nil
		}
		events = append(events, *ev)
	}
}

// field applies one "name: value" line. A line without a colon is a field
// name with an empty value. Unknown fields, retry included, are ignored.
func (r *Reader) field(line string) {
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch name {
	case "data":
		if r.dataLines > 0 {
			r.ev.Data += "\n"
		}
		r.ev.Data += value
		r.dataLines++
	case "event":
		r.ev.Type = value
	case "id":
		r.ev.ID = value
	default:
		return
	}
	r.started = true
}

func (r *Reader) take() *Event {
	ev := r.ev
	r.ev = Event{}
	r.dataLines = 0
	r.started = false
	return &ev
}
