package metrics

import (
	"context"
	"time"
)

// Noop is a Recorder that does nothing. Use when metrics are disabled to
// avoid overhead.
type Noop struct{}

// Compile-time interface check.
var _ Recorder = Noop{}

// RecordEvent does nothing.
func (Noop) RecordEvent(_ context.Context, _ string) {}

// RecordIngestDrop does nothing.
func (Noop) RecordIngestDrop(_ context.Context) {}

// RecordPublish does nothing.
func (Noop) RecordPublish(_ context.Context, _ int) {}

// RecordLagDrop does nothing.
func (Noop) RecordLagDrop(_ context.Context, _ int64) {}

// RecordSessionOpen does nothing.
func (Noop) RecordSessionOpen(_ context.Context) {}

// RecordSessionClose does nothing.
func (Noop) RecordSessionClose(_ context.Context, _ time.Duration) {}
