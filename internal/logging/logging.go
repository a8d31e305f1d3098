// Package logging builds the logr.Logger shared by the commands.
package logging

import (
	"io"
	"log/slog"

	"github.com/go-logr/logr"
)

// New returns a text logger writing to w. Verbosity n enables V(n) and below.
func New(w io.Writer, verbosity int) logr.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.Level(-verbosity),
	})
	return logr.FromSlogHandler(h)
}
