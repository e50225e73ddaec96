// Package replay plays a recorded notification trace back through the
// pipeline. Traces are JSONL, one notification per line, with the element
// snapshot inlined as a parent chain. Recorded pids rarely exist on the
// replay host, so application names resolve best effort; window context
// comes from the recorded chains instead.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/axstream/axstream/internal/event"
	"github.com/axstream/axstream/internal/provider"
)

// maxLineBytes bounds a single trace line; deep element chains nest.
const maxLineBytes = 1 << 20

// Config locates the trace. Loop restarts it after the last record; Fast
// collapses the recorded delays so the whole trace plays immediately.
type Config struct {
	Path string
	Loop bool
	Fast bool
}

type record struct {
	DelayMS      int64          `json:"delay_ms"`
	Notification string         `json:"notification"`
	Element      *elementRecord `json:"element"`
}

type elementRecord struct {
	Role   string                     `json:"role"`
	PID    int32                      `json:"pid"`
	Attrs  map[string]json.RawMessage `json:"attrs"`
	Parent *elementRecord             `json:"parent"`
}

// Provider replays a loaded trace, honoring recorded inter-event delays.
type Provider struct {
	records []record
	loop    bool
	fast    bool
	log     *slog.Logger

	mu    sync.Mutex
	names map[string]bool
	fn    provider.NotificationFunc
}

// New loads the whole trace up front so a missing or empty file fails at
// startup rather than mid-replay. Malformed lines are skipped, not fatal.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	records, err := load(cfg.Path, logger)
	if err != nil {
		return nil, err
	}
	return &Provider{records: records, loop: cfg.Loop, fast: cfg.Fast, log: logger}, nil
}

func load(path string, logger *slog.Logger) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay trace: %w", err)
	}
	defer f.Close()

	var records []record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warn("skipping malformed trace line",
				"path", path, "line", lineNo, "error", err)
			continue
		}
		if rec.Notification == "" {
			logger.Warn("skipping trace line without notification",
				"path", path, "line", lineNo)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read replay trace: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("replay trace %s contains no usable records", path)
	}
	return records, nil
}

// Subscribe installs the callback. One subscriber at a time; a second
// Subscribe replaces the first.
func (p *Provider) Subscribe(names []string, fn provider.NotificationFunc) (provider.Handle, error) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}

	p.mu.Lock()
	p.names = set
	p.fn = fn
	p.mu.Unlock()

	return provider.HandleFunc(func() error {
		p.mu.Lock()
		p.fn = nil
		p.names = nil
		p.mu.Unlock()
		return nil
	}), nil
}

// Run plays the trace. Without Loop it returns nil once the trace drains;
// the rest of the process keeps serving whatever was captured.
func (p *Provider) Run(ctx context.Context) error {
	p.log.Info("replay provider started",
		"records", len(p.records),
		"loop", p.loop,
		"fast", p.fast)

	for {
		for _, rec := range p.records {
			if rec.DelayMS > 0 && !p.fast {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(rec.DelayMS) * time.Millisecond):
				}
			} else if err := ctx.Err(); err != nil {
				return err
			}
			p.deliver(rec)
		}
		if !p.loop {
			p.log.Info("replay trace finished")
			return nil
		}
	}
}

func (p *Provider) deliver(rec record) {
	p.mu.Lock()
	fn := p.fn
	names := p.names
	p.mu.Unlock()

	if fn == nil || !names[rec.Notification] {
		return
	}
	fn(rec.Notification, rec.Element.toElement())
}

func (r *elementRecord) toElement() provider.Element {
	if r == nil {
		return nil
	}
	attrs := make(map[string]provider.Value, len(r.Attrs))
	for name, raw := range r.Attrs {
		if v, ok := decodeAttr(raw); ok {
			attrs[name] = v
		}
	}
	el := &provider.StaticElement{
		NodeRole: r.Role,
		NodePID:  r.PID,
		Attrs:    attrs,
	}
	if r.Parent != nil {
		el.NodeParent = r.Parent.toElement()
	}
	return el
}

// decodeAttr maps a recorded JSON value onto the attribute variants.
// Objects are recognized by shape; anything else is treated as absent.
func decodeAttr(raw json.RawMessage) (provider.Value, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return provider.Value{}, false
	}
	switch t := v.(type) {
	case string:
		return provider.StringValue(t), true
	case float64:
		// 1<<53 is the exact-integer range of float64.
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return provider.IntValue(int64(t)), true
		}
		return provider.FloatValue(t), true
	case bool:
		return provider.BoolValue(t), true
	case map[string]any:
		if p, ok := pointFromMap(t); ok {
			return provider.PointValue(p), true
		}
		if s, ok := sizeFromMap(t); ok {
			return provider.SizeValue(s), true
		}
	}
	return provider.Value{}, false
}

func pointFromMap(m map[string]any) (event.Point, bool) {
	x, okX := m["x"].(float64)
	y, okY := m["y"].(float64)
	if !okX || !okY {
		return event.Point{}, false
	}
	return event.Point{X: x, Y: y}, true
}

func sizeFromMap(m map[string]any) (event.Size, bool) {
	w, okW := m["width"].(float64)
	h, okH := m["height"].(float64)
	if !okW || !okH {
		return event.Size{}, false
	}
	return event.Size{Width: w, Height: h}, true
}
