package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/axstream/axstream/internal/bus"
	"github.com/axstream/axstream/internal/metrics"
)

// Broadcaster is the queue's single consumer: it serializes each event
// once and hands the frame to the fan-out bus, which shares it across all
// subscribers.
type Broadcaster struct {
	queue   *Queue
	bus     *bus.Bus
	log     *slog.Logger
	metrics metrics.Recorder

	published atomic.Int64
	failed    atomic.Int64
}

func NewBroadcaster(q *Queue, b *bus.Bus, logger *slog.Logger, rec metrics.Recorder) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Broadcaster{queue: q, bus: b, log: logger, metrics: rec}
}

// Run drains the queue until ctx is cancelled. A serialization failure
// logs and skips that event; nothing short of cancellation stops the
// loop. Publishing to a bus with no subscribers quietly discards the
// frame, which is the bus's no-op contract, not an error.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started")
	for {
		ev, ok := b.queue.Dequeue(ctx)
		if !ok {
			b.log.Info("broadcaster stopped")
			return
		}

		frame, err := json.Marshal(ev)
		if err != nil {
			b.failed.Add(1)
			b.log.Error("event serialization failed, skipping",
				"event_type", ev.Type,
				"error", err)
			continue
		}

		b.bus.Publish(frame)
		b.published.Add(1)
		b.metrics.RecordPublish(ctx, len(frame))
	}
}

// Published reports frames handed to the bus since start.
func (b *Broadcaster) Published() int64 { return b.published.Load() }

// SerializationFailures reports events skipped because they would not
// serialize.
func (b *Broadcaster) SerializationFailures() int64 { return b.failed.Load() }
