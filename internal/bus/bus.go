// Package bus fans serialized event frames out to subscribers.
//
// The publisher is never allowed to block: each subscriber owns a
// fixed-capacity ring, and a subscriber that falls behind loses its oldest
// buffered frames while the newest keep arriving. Subscribers are fully
// independent; one stalling changes nothing for the others.
package bus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/axstream/axstream/internal/metrics"
)

// ErrSubscriptionClosed is returned by Next once the subscription has been
// removed from the bus.
var ErrSubscriptionClosed = errors.New("subscription closed")

const defaultBufferSize = 100

// Config tunes a Bus. Zero values select defaults.
type Config struct {
	// BufferSize is each subscriber's ring capacity. A subscriber more
	// than BufferSize frames behind the publisher loses the oldest ones.
	BufferSize int
	Logger     *slog.Logger
	Metrics    metrics.Recorder
}

// Bus delivers every published frame to every current subscriber.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	bufSize int
	log     *slog.Logger
	metrics metrics.Recorder
}

func New(cfg Config) *Bus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	return &Bus{
		subs:    make(map[string]*Subscription),
		bufSize: cfg.BufferSize,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Publish delivers frame to all current subscribers and returns
// immediately. With no subscribers it is a no-op. The frame is shared, not
// copied; callers must not modify it afterwards.
func (b *Bus) Publish(frame []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		sub.push(frame)
	}
}

// Subscribe registers a new subscriber. The subscription sees only frames
// published after this call; there is no backfill.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		id:     uuid.New().String(),
		bus:    b,
		buf:    make([][]byte, b.bufSize),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()
	b.log.Debug("subscriber added", "subscription", sub.id)
	return sub
}

// SubscriberCount reports the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
	b.log.Debug("subscriber removed", "subscription", id)
}

// Subscription is one subscriber's view of the bus. Next and Unsubscribe
// may be called from any goroutine.
type Subscription struct {
	id  string
	bus *Bus

	mu    sync.Mutex
	buf   [][]byte // fixed-capacity ring
	head  int      // oldest buffered frame
	count int

	dropped   atomic.Uint64
	notify    chan struct{} // 1-slot wakeup, collapses bursts
	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the subscription's unique id.
func (s *Subscription) ID() string { return s.id }

// Dropped reports the total frames this subscriber lost to ring overflow.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Next returns the oldest buffered frame in publish order, blocking until
// a frame arrives, ctx is cancelled, or the subscription is closed.
func (s *Subscription) Next(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-s.done:
			return nil, ErrSubscriptionClosed
		default:
		}

		if frame, ok := s.pop(); ok {
			return frame, nil
		}

		select {
		case <-s.notify:
		case <-s.done:
			return nil, ErrSubscriptionClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Unsubscribe removes the subscription from the bus. Pending and future
// Next calls return ErrSubscriptionClosed. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		s.bus.remove(s.id)
		close(s.done)
	})
}

func (s *Subscription) push(frame []byte) {
	s.mu.Lock()
	if s.count == len(s.buf) {
		// Ring is full: overwrite the oldest so the subscriber keeps
		// receiving the newest frames.
		s.buf[s.head] = nil
		s.head = (s.head + 1) % len(s.buf)
		s.count--
		s.dropped.Add(1)
		s.bus.metrics.RecordLagDrop(context.Background(), 1)
	}
	s.buf[(s.head+s.count)%len(s.buf)] = frame
	s.count++
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) pop() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return nil, false
	}
	frame := s.buf[s.head]
	s.buf[s.head] = nil
	s.head = (s.head + 1) % len(s.buf)
	s.count--
	return frame, true
}
