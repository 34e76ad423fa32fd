// Package logging builds the slog loggers used across nestflow.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Option configures New.
type Option func(*options)

type options struct {
	w      io.Writer
	format string
}

// WithWriter redirects output. The default is stderr, which keeps stdout free for
// the terminal player and the MCP stdio transport.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.w = w }
}

// WithFormat selects FormatText (default) or FormatJSON.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// New creates the application logger. The "error" key is renamed to "err" so
// call sites may use either.
func New(level slog.Level, opts ...Option) *slog.Logger {
	o := options{w: os.Stderr, format: FormatText}
	for _, opt := range opts {
		opt(&o)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if o.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(o.w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(o.w, handlerOpts))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
