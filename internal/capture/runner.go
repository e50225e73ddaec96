package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/axstream/axstream/internal/pipeline"
	"github.com/axstream/axstream/internal/provider"
)

// Runner wires a provider to the ingest queue: it registers the
// recognized notification vocabulary and feeds each normalized event into
// the queue without ever blocking the capture goroutine.
type Runner struct {
	provider provider.Provider
	norm     *Normalizer
	queue    *pipeline.Queue
	log      *slog.Logger
}

func NewRunner(p provider.Provider, norm *Normalizer, q *pipeline.Queue, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{provider: p, norm: norm, queue: q, log: logger}
}

// Run subscribes and pumps the provider until ctx is cancelled. A
// registration failure is returned to the caller: with no subscription
// there is nothing to capture, and the process should treat that as
// fatal.
func (r *Runner) Run(ctx context.Context) error {
	handle, err := r.provider.Subscribe(provider.KnownNotifications(), r.handle)
	if err != nil {
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	defer handle.Close()

	r.log.Info("capture started")
	err = r.provider.Run(ctx)
	r.log.Info("capture stopped")
	return err
}

func (r *Runner) handle(notification string, el provider.Element) {
	ev, ok := r.norm.Normalize(notification, el)
	if !ok {
		r.log.Debug("ignoring unrecognized notification", "notification", notification)
		return
	}
	// Queue full is handled (counted, throttled-logged) by the queue
	// itself; capture never stalls on it.
	r.queue.TryEnqueue(ev)
}
