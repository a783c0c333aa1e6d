// Package cliui holds the terminal output pieces shared by the ollamaui
// commands: status marks, the wait spinner, key/value lines, stats blocks and
// markdown or JSON rendering of model replies.
package cliui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle   = lipgloss.NewStyle().Bold(true)
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	HashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const spinnerInterval = 80 * time.Millisecond

// Step runs fn under msg, e.g. "Waiting for llama3.2" while a non-streamed
// reply loads. On a terminal the line spins until fn returns; elsewhere only
// the final line is written. The final line carries the mark and elapsed
// time.
func Step(w io.Writer, msg string, fn func() error) error {
	f, ok := w.(*os.File)
	animate := ok && IsTerminal(f)

	var stop func()
	if animate {
		stop = spin(w, msg)
	}

	start := time.Now()
	err := fn()
	elapsed := StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(time.Since(start))))

	prefix := "  "
	if animate {
		stop()
		prefix = "\r  "
	}
	fmt.Fprintf(w, "%s%s %s %s\n", prefix, Mark(err), msg, elapsed)

	return err
}

// spin redraws msg with the next frame until the returned func is called.
func spin(w io.Writer, msg string) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// Mark is ✓ for a nil error and ✗ otherwise.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration renders request latency: "12ms" under a second, "3.2s" above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderMarkdown renders a reply for chat --markdown. On failure the content
// is returned unchanged with the error.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}

// KeyValue renders an indented "key: value" line, as used by history show
// and models.
func KeyValue(key, value string) string {
	return fmt.Sprintf("  %s %s", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}
