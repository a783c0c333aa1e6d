package cliui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
)

// StatsLines renders the rate and count lines for a finished response.
// Undefined rates are left out. It returns nil for nil stats.
func StatsLines(s *decoder.Stats) []string {
	if s == nil {
		return nil
	}

	var lines []string
	if s.PromptRate != nil {
		lines = append(lines, KeyValue("Prompt tokens/sec", s.PromptRate.String()))
	}
	if s.EvalRate != nil {
		lines = append(lines, KeyValue("Eval tokens/sec", s.EvalRate.String()))
	}
	if s.PromptEvalCount != nil {
		lines = append(lines, KeyValue("Prompt tokens", strconv.FormatInt(*s.PromptEvalCount, 10)))
	}
	if s.EvalCount != nil {
		lines = append(lines, KeyValue("Eval tokens", strconv.FormatInt(*s.EvalCount, 10)))
	}
	return lines
}

// WriteStats prints StatsLines to w, one per line.
func WriteStats(w io.Writer, s *decoder.Stats) {
	for _, line := range StatsLines(s) {
		fmt.Fprintln(w, line)
	}
}

// Preview collapses whitespace in text and truncates it to width terminal
// cells, ANSI sequences and wide runes included.
func Preview(text string, width int) string {
	flat := strings.Join(strings.Fields(text), " ")
	return ansi.Truncate(flat, width, "…")
}
