package logger

import (
	"io"
	"log/slog"
)

// Option tweaks the logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug. Commands pass their --debug flag.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty switches to charmbracelet/log, used when stderr is a terminal.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithJSON emits one JSON object per record (log.json, --log-file). It wins
// over WithPretty.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriter sends output to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters duplicates the same encoded output to each of w.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithSource adds the caller's file:line. On with --debug.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
