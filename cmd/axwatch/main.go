package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/axstream/axstream/internal/event"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

var (
	streamURL string
	raw       bool
	once      bool
)

func main() {
	root := &cobra.Command{
		Use:   "axwatch",
		Short: "Tail an axstream event feed",
		Long: `axwatch connects to a running axstream daemon and prints each event
as it arrives, reconnecting with backoff when the stream drops.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watch(ctx)
		},
	}

	root.Flags().StringVar(&streamURL, "url", "ws://127.0.0.1:9001/ws", "stream endpoint")
	root.Flags().BoolVar(&raw, "raw", false, "print frames exactly as received")
	root.Flags().BoolVar(&once, "once", false, "exit on disconnect instead of reconnecting")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func watch(ctx context.Context) error {
	delay := reconnectBaseDelay
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(streamURL, nil)
		if err != nil {
			if once {
				return fmt.Errorf("dial %s: %w", streamURL, err)
			}
			fmt.Fprintf(os.Stderr, "dial %s: %v (retry in %v)\n", streamURL, err, delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}

		fmt.Fprintf(os.Stderr, "connected to %s\n", streamURL)
		delay = reconnectBaseDelay

		err = pump(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		if once {
			return err
		}
		fmt.Fprintf(os.Stderr, "stream closed: %v\n", err)
	}
}

// pump reads frames until the connection dies. The server only talks
// when events flow, so the client pings to keep liveness visible.
func pump(ctx context.Context, conn *websocket.Conn) error {
	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go pingLoop(pingCtx, conn)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		printFrame(frame)
	}
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func printFrame(frame []byte) {
	if raw {
		os.Stdout.Write(append(frame, '\n'))
		return
	}
	var ev event.Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		os.Stdout.Write(append(frame, '\n'))
		return
	}
	fmt.Println(formatEvent(ev))
}

// formatEvent renders one event per line, leaving out whatever the
// capture side could not extract.
func formatEvent(ev event.Event) string {
	parts := []string{
		ev.Timestamp.Local().Format("15:04:05.000"),
		fmt.Sprintf("%-22s", ev.Type),
	}

	if ev.Application != nil {
		app := "?"
		if ev.Application.Name != nil {
			app = *ev.Application.Name
		}
		if ev.Application.PID != nil {
			app = fmt.Sprintf("%s[%d]", app, *ev.Application.PID)
		}
		parts = append(parts, app)
	}

	if ev.Window != nil && ev.Window.Title != nil {
		parts = append(parts, fmt.Sprintf("%q", *ev.Window.Title))
	}

	if ev.Element != nil {
		var el []string
		if ev.Element.Role != nil {
			el = append(el, *ev.Element.Role)
		}
		if ev.Element.Identifier != nil {
			el = append(el, fmt.Sprintf("%q", *ev.Element.Identifier))
		}
		if ev.Element.Value != nil {
			el = append(el, fmt.Sprintf("= %v", ev.Element.Value))
		}
		if len(el) > 0 {
			parts = append(parts, strings.Join(el, " "))
		}
	}

	return strings.Join(parts, "  ")
}
