// Package report defines output backends for per-target capture results.
// Implementations deliver results to different consumers (stdout JSON
// lines for pipelines, webhooks for publishing jobs).
package report

import (
	"context"

	"github.com/hazyhaar/mapshot/mapshot/internal/capture"
)

// Sink is the result output interface.
type Sink interface {
	Send(ctx context.Context, res capture.Result) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
