// Package output provides adapters for writing user-facing output.
package output

import (
	"fmt"
	"io"
	"os"
)

// ErrorPrefix marks every line written to the error channel.
const ErrorPrefix = "[!ERROR!] "

// Reporter writes lines to three channels: normal and verbose go to out,
// errors go to errOut. Verbose lines are dropped unless verbose returns true.
type Reporter struct {
	out     io.Writer
	errOut  io.Writer
	verbose func() bool
}

// NewReporter creates a Reporter writing to stdout and stderr.
func NewReporter(verbose bool) *Reporter {
	return NewReporterWithOutput(os.Stdout, os.Stderr, func() bool { return verbose })
}

// NewReporterWithOutput creates a Reporter with custom destinations and verbosity predicate.
// A nil predicate disables verbose output.
func NewReporterWithOutput(out, errOut io.Writer, verbose func() bool) *Reporter {
	if verbose == nil {
		verbose = func() bool { return false }
	}
	return &Reporter{out: out, errOut: errOut, verbose: verbose}
}

// Info writes to the normal channel.
func (r *Reporter) Info(format string, args ...any) {
	writef(r.out, format, args...)
}

// Verbose writes to the normal channel only when verbose output is enabled.
func (r *Reporter) Verbose(format string, args ...any) {
	if r.verbose() {
		writef(r.out, format, args...)
	}
}

// Error writes to the error channel.
func (r *Reporter) Error(format string, args ...any) {
	writef(r.errOut, ErrorPrefix+format, args...)
}

// writef is best-effort: there is no recovery action for a failed terminal write.
func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
