package focusread

import (
	"context"
	"io"

	"github.com/hazyhaar/bionic/focusread/internal/report"
)

// Report summarises one reconciliation pass.
type Report = report.Report

// Sink receives pass reports.
type Sink = report.Sink

// StdoutSink writes reports as JSON lines to w. Passes that changed
// nothing are skipped unless verbose is set.
func StdoutSink(w io.Writer, verbose bool) Sink {
	s := report.NewStdout(w)
	s.Verbose = verbose
	return s
}

// CallbackSink delivers reports to fn.
func CallbackSink(fn func(ctx context.Context, r Report) error) Sink {
	return report.NewCallback(fn)
}
