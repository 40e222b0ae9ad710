// Package logging builds the process logger: stdr behind logr, writing to
// stdout and an append-mode log file.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/pkg/errors"
)

// Setup opens logFile (if set) and returns a logger writing to both it and stdout.
// The returned closer releases the file.
func Setup(logFile string, verbosity int) (logr.Logger, io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return logr.Discard(), nil, errors.Wrap(err, "open log file")
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	return New(out, verbosity), closer, nil
}

// New returns a logger writing to w
func New(w io.Writer, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.New(log.New(w, "", log.LstdFlags|log.Lmicroseconds))
}
