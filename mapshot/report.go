package mapshot

import (
	"io"
	"log/slog"

	"github.com/hazyhaar/mapshot/mapshot/internal/capture"
	"github.com/hazyhaar/mapshot/mapshot/internal/report"
)

// Result is the per-target outcome delivered to sinks.
type Result = capture.Result

// Target statuses.
const (
	StatusCaptured    = capture.StatusCaptured
	StatusPlaceholder = capture.StatusPlaceholder
)

// Sink is the result output interface.
type Sink = report.Sink

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return report.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return report.NewWebhook(url, report.WithWebhookLogger(logger))
}
