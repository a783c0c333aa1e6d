// Package sse reads and writes Server-Sent Events. The web form's chat
// endpoint streams decoder updates with a Writer; Reader parses such a stream
// back into events and can tee the raw bytes to a second writer.
//
// See https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"strings"
)

// Event is one SSE event, delimited by a blank line on the wire.
type Event struct {
	// Type is the "event:" field. Empty means the default "message" type.
	Type string

	// Data is every "data:" line of the event joined with "\n".
	Data string

	// ID is the "id:" field, if present.
	ID string
}

// String encodes the event in wire format, including the terminating blank
// line. Multi-line data is split across several data fields.
func (e Event) String() string {
	var sb strings.Builder
	if e.ID != "" {
		sb.WriteString("id: " + e.ID + "\n")
	}
	if e.Type != "" {
		sb.WriteString("event: " + e.Type + "\n")
	}
	for _, line := range strings.Split(e.Data, "\n") {
		sb.WriteString("data: " + line + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
