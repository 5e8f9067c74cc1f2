package capture

import "errors"

// The four failure kinds the retry loop distinguishes. All of them are
// retryable at the attempt boundary; after the budget they degrade to a
// placeholder write, never a process-level error.
var (
	// ErrNavigation covers network errors and load timeouts.
	ErrNavigation = errors.New("navigation failed")
	// ErrNoRegion means neither the hinted nor the fallback selectors
	// located a viable candidate.
	ErrNoRegion = errors.New("no region found")
	// ErrInvalidCapture means the rasterized buffer failed signature or
	// size validation (blank frame, error page, truncated encode).
	ErrInvalidCapture = errors.New("invalid capture")
	// ErrViewport means the region could not be made to fit the viewport
	// even after resizing. Handled like an invalid capture.
	ErrViewport = errors.New("viewport insufficient")
)
