package cliui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// PrettyJSON re-indents text with two spaces when it is a single JSON value.
// The second return is false when text is not JSON.
func PrettyJSON(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return text, false
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return text, false
	}
	return buf.String(), true
}

// HighlightJSON colors JSON for a 256 color terminal. It returns the input
// unchanged if highlighting fails.
func HighlightJSON(text string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return text
	}
	return sb.String()
}
