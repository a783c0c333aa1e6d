package decoder

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// DataPrefix is the optional literal marker some servers put in front of
// each record. It is stripped before parsing.
const DataPrefix = "data: "

var errTrailingData = errors.New("unexpected data after JSON value")

// Record is one parsed line of the stream.
type Record struct {
	// Raw is the JSON text of the record with the data prefix removed.
	Raw json.RawMessage

	// Fields holds the decoded object. It is nil when the record parsed as
	// valid JSON that is not an object.
	Fields map[string]any
}

// Done reports whether the record carries an explicit done == true flag.
func (r *Record) Done() bool {
	if r == nil {
		return false
	}
	done, ok := r.Fields["done"].(bool)
	return ok && done
}

// MarshalJSON returns the raw record text.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// stripPrefix trims surrounding whitespace and removes a leading DataPrefix.
func stripPrefix(line string) string {
	return strings.TrimPrefix(strings.TrimSpace(line), DataPrefix)
}

// parseRecord parses text as exactly one JSON value. Numbers are kept as
// json.Number so nanosecond durations do not lose precision.
func parseRecord(text string) (*Record, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	rec := &Record{Raw: json.RawMessage(strings.TrimSpace(text))}
	rec.Fields, _ = v.(map[string]any)
	return rec, nil
}
