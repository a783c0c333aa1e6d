package cliui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// ColorProfile picks the color profile for output written to f. Non-terminals
// and NO_COLOR get plain ASCII.
func ColorProfile(f *os.File) termenv.Profile {
	if !IsTerminal(f) || os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.NewOutput(f).EnvColorProfile()
}

// ConfigureColor sets the lipgloss color profile from f. Call it once before
// rendering anything.
func ConfigureColor(f *os.File) termenv.Profile {
	profile := ColorProfile(f)
	lipgloss.SetColorProfile(profile)
	return profile
}

// Width returns the terminal width of f, or fallback when it is unknown.
func Width(f *os.File, fallback int) int {
	if !IsTerminal(f) {
		return fallback
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
