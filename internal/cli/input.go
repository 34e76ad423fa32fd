package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/nestflow/internal/logging"
)

var errInterrupted = errors.New("interrupted")

// InterruptibleReader stops yielding input once done is closed.
// A Read already blocked on the terminal returns errInterrupted as soon as it wakes.
type InterruptibleReader struct {
	r    io.Reader
	done <-chan struct{}
}

// NewInterruptibleReader wraps r, usually os.Stdin.
func NewInterruptibleReader(r io.Reader, done <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{r: r, done: done}
}

func (ir *InterruptibleReader) Read(p []byte) (int, error) {
	if ir.closed() {
		return 0, errInterrupted
	}
	n, err := ir.r.Read(p)
	if ir.closed() {
		return 0, errInterrupted
	}
	return n, err
}

func (ir *InterruptibleReader) closed() bool {
	select {
	case <-ir.done:
		return true
	default:
		return false
	}
}

// IsInterrupted reports whether err means the user left: Ctrl+C, Ctrl+D or a cancelled context.
func IsInterrupted(err error) bool {
	switch {
	case errors.Is(err, errInterrupted), errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return true
	}
	return false
}

// NewLogger builds the process logger. Quiet mode discards everything.
func NewLogger(level slog.Level, format string, quiet bool) *slog.Logger {
	if quiet {
		return logging.NewNop()
	}
	return logging.New(level, logging.WithFormat(format))
}

func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> "+format+"\n", args...)
}
