package logging

import (
	"context"
	"log/slog"

	"github.com/FocuswithJustin/changescheme/core/events"
)

// Reporter writes events to a slog logger. Warnings are logged at warn
// level and notes at info level, so notes only show with --debug.
type Reporter struct {
	logger *slog.Logger
}

// NewReporter returns a Reporter using logger, or the global logger when
// logger is nil.
func NewReporter(logger *slog.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// ReporterFromContext returns a Reporter whose logger carries the context's
// run ID.
func ReporterFromContext(ctx context.Context) *Reporter {
	return &Reporter{logger: LoggerFromContext(ctx)}
}

// Report implements events.Reporter.
func (r *Reporter) Report(e events.Event) {
	logger := r.logger
	if logger == nil {
		logger = defaultLogger
	}

	args := []any{"kind", string(e.Kind)}
	if e.File != "" {
		args = append(args, "file", e.File)
	}
	if e.Word != "" {
		args = append(args, "word", e.Word, "word_index", e.WordIndex)
	}
	if len(e.Observed) > 0 {
		args = append(args, "observed", e.Observed)
	}
	if len(e.Expected) > 0 {
		args = append(args, "expected", e.Expected)
	}

	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Severity == events.SeverityWarn {
		logger.Warn(msg, args...)
		return
	}
	logger.Info(msg, args...)
}
