package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/axstream/axstream/internal/bus"
	"github.com/axstream/axstream/internal/metrics"
)

// closeGrace bounds how long a close frame may take to flush before the
// socket is torn down regardless.
const closeGrace = time.Second

// session relays one subscription onto one connection. The read side
// exists to notice the peer going away and to let the library answer
// pings; inbound data frames are ignored.
type session struct {
	conn    *websocket.Conn
	sub     *bus.Subscription
	log     *slog.Logger
	metrics metrics.Recorder
}

// run blocks until the peer disconnects, a write fails, or the
// subscription closes, then tears the connection down.
func (s *session) run() {
	start := time.Now()
	s.metrics.RecordSessionOpen(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer cancel()
		for {
			// ReadMessage pumps control frames, so pings get their
			// pongs here. Whatever data arrives is discarded.
			if _, _, err := s.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.relay(ctx)
	s.close()

	age := time.Since(start)
	s.metrics.RecordSessionClose(context.Background(), age)
	s.log.Info("client disconnected",
		"duration", age.Round(time.Millisecond),
		"dropped", s.sub.Dropped())
}

func (s *session) relay(ctx context.Context) {
	for {
		frame, err := s.sub.Next(ctx)
		if err != nil {
			return
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.log.Debug("write failed", "error", err)
			return
		}
	}
}

func (s *session) close() {
	deadline := time.Now().Add(closeGrace)
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	s.conn.Close()
	s.sub.Unsubscribe()
}
