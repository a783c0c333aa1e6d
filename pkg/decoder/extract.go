package decoder

// Extractor pulls an incremental text delta out of a decoded record. The
// boolean is false when the field the extractor looks for is absent.
type Extractor func(fields map[string]any) (string, bool)

// DefaultExtractors is the order in which delta fields are tried. Chat
// responses nest content under message, some servers flatten it to content,
// and the generate endpoint uses response.
var DefaultExtractors = []Extractor{
	MessageContent,
	Content,
	Response,
}

// MessageContent extracts message.content.
func MessageContent(fields map[string]any) (string, bool) {
	msg, ok := fields["message"].(map[string]any)
	if !ok {
		return "", false
	}
	return stringField(msg, "content")
}

// Content extracts a top-level content field.
func Content(fields map[string]any) (string, bool) {
	return stringField(fields, "content")
}

// Response extracts a top-level response field.
func Response(fields map[string]any) (string, bool) {
	return stringField(fields, "response")
}

// extractDelta returns the value of the first extractor that matches.
func extractDelta(extractors []Extractor, rec *Record) string {
	if rec == nil || rec.Fields == nil {
		return ""
	}

	for _, extract := range extractors {
		if delta, ok := extract(rec.Fields); ok {
			return delta
		}
	}
	return ""
}

func stringField(fields map[string]any, key string) (string, bool) {
	s, ok := fields[key].(string)
	return s, ok
}
