// Package pipeline moves normalized events from the capture goroutine to
// the broadcast side: a bounded ingest queue on one end, a single
// serializing consumer on the other.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/axstream/axstream/internal/event"
	"github.com/axstream/axstream/internal/metrics"
)

const (
	defaultCapacity = 100

	// dropLogInterval throttles full-queue warnings under sustained
	// backpressure; the drop counters stay exact.
	dropLogInterval = 10 * time.Second
)

// Queue is the bounded hand-off between capture and broadcast. Enqueueing
// never blocks: when the buffer is full the incoming event is discarded
// and the buffered ones keep their slots. Order out is exactly order in.
type Queue struct {
	ch      chan event.Event
	log     *slog.Logger
	metrics metrics.Recorder

	enqueued atomic.Int64
	dropped  atomic.Int64

	// Touched only by the capture goroutine.
	droppedSinceLog int64
	lastDropLog     time.Time
}

func NewQueue(capacity int, logger *slog.Logger, rec metrics.Recorder) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Queue{
		ch:      make(chan event.Event, capacity),
		log:     logger,
		metrics: rec,
	}
}

// TryEnqueue offers ev to the queue and reports whether it was accepted.
// On a full queue the event is dropped, counted, and logged at most once
// per dropLogInterval to avoid spamming under sustained backpressure.
// TryEnqueue is meant for a single producer goroutine.
func (q *Queue) TryEnqueue(ev event.Event) bool {
	select {
	case q.ch <- ev:
		q.enqueued.Add(1)
		q.metrics.RecordEvent(context.Background(), string(ev.Type))
		return true
	default:
		q.dropped.Add(1)
		q.droppedSinceLog++
		q.metrics.RecordIngestDrop(context.Background())

		now := time.Now()
		if q.lastDropLog.IsZero() || now.Sub(q.lastDropLog) >= dropLogInterval {
			q.log.Warn("ingest queue full, dropping events",
				"dropped", q.droppedSinceLog,
				"capacity", cap(q.ch))
			q.droppedSinceLog = 0
			q.lastDropLog = now
		}
		return false
	}
}

// Dequeue returns the oldest queued event, blocking until one arrives or
// ctx is cancelled. ok is false only on cancellation.
func (q *Queue) Dequeue(ctx context.Context) (event.Event, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	case <-ctx.Done():
		return event.Event{}, false
	}
}

// Len reports the number of currently buffered events.
func (q *Queue) Len() int { return len(q.ch) }

// Stats reports totals since creation.
func (q *Queue) Stats() (enqueued, dropped int64) {
	return q.enqueued.Load(), q.dropped.Load()
}
