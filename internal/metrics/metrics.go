// Package metrics records pipeline health over OpenTelemetry.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder records capture and broadcast metrics.
// Use NewRecorder() for OTel metrics or Noop{} when disabled.
type Recorder interface {
	// RecordEvent records one normalized event entering the pipeline.
	RecordEvent(ctx context.Context, eventType string)

	// RecordIngestDrop records an event dropped at the ingest queue.
	RecordIngestDrop(ctx context.Context)

	// RecordPublish records one serialized frame handed to the fan-out bus.
	RecordPublish(ctx context.Context, frameBytes int)

	// RecordLagDrop records messages a lagging subscriber lost.
	RecordLagDrop(ctx context.Context, count int64)

	// RecordSessionOpen records a client connection entering the open state.
	RecordSessionOpen(ctx context.Context)

	// RecordSessionClose records a client connection closing after age.
	RecordSessionClose(ctx context.Context, age time.Duration)
}

type otelRecorder struct {
	events     metric.Int64Counter
	drops      metric.Int64Counter
	publishes  metric.Int64Counter
	frameBytes metric.Int64Histogram
	lagDrops   metric.Int64Counter
	sessions   metric.Int64UpDownCounter
	sessionAge metric.Float64Histogram
}

var (
	defaultRecorder     *otelRecorder
	defaultRecorderOnce sync.Once
	defaultRecorderErr  error
)

func getDefaultRecorder() (*otelRecorder, error) {
	defaultRecorderOnce.Do(func() {
		defaultRecorder, defaultRecorderErr = newOtelRecorder()
	})
	return defaultRecorder, defaultRecorderErr
}

func newOtelRecorder() (*otelRecorder, error) {
	meter := otel.Meter("axstream")

	events, err := meter.Int64Counter("axstream.capture.events",
		metric.WithDescription("Normalized events entering the pipeline"),
	)
	if err != nil {
		return nil, err
	}

	drops, err := meter.Int64Counter("axstream.ingest.drops",
		metric.WithDescription("Events dropped at the full ingest queue"),
	)
	if err != nil {
		return nil, err
	}

	publishes, err := meter.Int64Counter("axstream.broadcast.frames",
		metric.WithDescription("Serialized frames handed to the fan-out bus"),
	)
	if err != nil {
		return nil, err
	}

	frameBytes, err := meter.Int64Histogram("axstream.broadcast.frame_bytes",
		metric.WithDescription("Serialized frame size"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	lagDrops, err := meter.Int64Counter("axstream.bus.lag_drops",
		metric.WithDescription("Messages lost by lagging subscribers"),
	)
	if err != nil {
		return nil, err
	}

	sessions, err := meter.Int64UpDownCounter("axstream.ws.sessions",
		metric.WithDescription("Open client sessions"),
	)
	if err != nil {
		return nil, err
	}

	sessionAge, err := meter.Float64Histogram("axstream.ws.session_seconds",
		metric.WithDescription("Client session lifetime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		events:     events,
		drops:      drops,
		publishes:  publishes,
		frameBytes: frameBytes,
		lagDrops:   lagDrops,
		sessions:   sessions,
		sessionAge: sessionAge,
	}, nil
}

// NewRecorder returns a Recorder backed by OpenTelemetry. If metrics
// initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewRecorder() Recorder {
	r, err := getDefaultRecorder()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return Noop{}
	}
	return r
}

func (r *otelRecorder) RecordEvent(ctx context.Context, eventType string) {
	r.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

func (r *otelRecorder) RecordIngestDrop(ctx context.Context) {
	r.drops.Add(ctx, 1)
}

func (r *otelRecorder) RecordPublish(ctx context.Context, frameBytes int) {
	r.publishes.Add(ctx, 1)
	r.frameBytes.Record(ctx, int64(frameBytes))
}

func (r *otelRecorder) RecordLagDrop(ctx context.Context, count int64) {
	r.lagDrops.Add(ctx, count)
}

func (r *otelRecorder) RecordSessionOpen(ctx context.Context) {
	r.sessions.Add(ctx, 1)
}

func (r *otelRecorder) RecordSessionClose(ctx context.Context, age time.Duration) {
	r.sessions.Add(ctx, -1)
	r.sessionAge.Record(ctx, age.Seconds())
}
