// Package sim is a synthetic accessibility provider: it walks a scripted
// interaction loop over a small cast of applications, producing the same
// notification shapes a native backend would. Useful for demos and for
// exercising the full pipeline on hosts without an accessibility bridge.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/axstream/axstream/internal/event"
	"github.com/axstream/axstream/internal/provider"
	"github.com/axstream/axstream/internal/provider/hostapps"
)

const defaultInterval = 500 * time.Millisecond

// App is one application the script impersonates.
type App struct {
	PID  int32
	Name string
}

// Config tunes the provider. Zero values select defaults.
type Config struct {
	// Interval is the gap between consecutive notifications.
	Interval time.Duration
	// Apps is the cast to cycle through. Empty samples real pids from the
	// host process table so application names resolve against it, falling
	// back to a fixed synthetic cast.
	Apps []App
}

// Provider cycles one scripted step per tick, rotating through the cast.
// It also implements provider.Apps over its own cast, so window fallback
// through the application root works end to end.
type Provider struct {
	interval time.Duration
	log      *slog.Logger
	worlds   []*world

	mu     sync.Mutex
	names  map[string]bool
	fn     provider.NotificationFunc
	step   int
	active int
}

// world is the per-app element tree the script mutates as it plays.
type world struct {
	app    App
	root   *provider.StaticElement
	main   *provider.StaticElement
	extra  *provider.StaticElement // settings window, created mid-script
	field  *provider.StaticElement
	orphan *provider.StaticElement // parentless; exercises focused-window fallback
	ghost  *provider.StaticElement // pid-less; exercises partial extraction
	menu   *provider.StaticElement
	item   *provider.StaticElement
	typed  int
	moves  int
}

func New(cfg Config, logger *slog.Logger) *Provider {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	cast := cfg.Apps
	if len(cast) == 0 {
		cast = hostCast()
	}

	worlds := make([]*world, len(cast))
	for i, app := range cast {
		worlds[i] = newWorld(app)
	}
	return &Provider{interval: cfg.Interval, log: logger, worlds: worlds}
}

// hostCast samples real processes so pids resolve against the live host;
// a locked-down host still gets a fixed synthetic cast.
func hostCast() []App {
	sampled := hostapps.Sample(3)
	if len(sampled) == 0 {
		return []App{
			{PID: 9001, Name: "notes"},
			{PID: 9002, Name: "browser"},
			{PID: 9003, Name: "terminal"},
		}
	}
	cast := make([]App, len(sampled))
	for i, s := range sampled {
		cast[i] = App{PID: s.PID, Name: s.Name}
	}
	return cast
}

func newWorld(app App) *world {
	root := &provider.StaticElement{
		NodeRole: provider.RoleApplication,
		NodePID:  app.PID,
		Attrs: map[string]provider.Value{
			provider.AttrTitle: provider.StringValue(app.Name),
		},
	}
	main := &provider.StaticElement{
		NodeRole:   provider.RoleWindow,
		NodePID:    app.PID,
		NodeParent: root,
		Attrs: map[string]provider.Value{
			provider.AttrTitle:      provider.StringValue(app.Name),
			provider.AttrIdentifier: provider.StringValue(fmt.Sprintf("w-%d-main", app.PID)),
			provider.AttrPosition:   provider.PointValue(event.Point{X: 80, Y: 60}),
			provider.AttrSize:       provider.SizeValue(event.Size{Width: 1280, Height: 800}),
		},
	}
	root.Attrs[provider.AttrFocusedWindow] = provider.ElementValue(main)

	field := &provider.StaticElement{
		NodeRole:   provider.RoleTextField,
		NodePID:    app.PID,
		NodeParent: main,
		Attrs: map[string]provider.Value{
			provider.AttrTitle:    provider.StringValue("Search"),
			provider.AttrValue:    provider.StringValue(""),
			provider.AttrPosition: provider.PointValue(event.Point{X: 120, Y: 96}),
			provider.AttrSize:     provider.SizeValue(event.Size{Width: 240, Height: 24}),
		},
	}
	orphan := &provider.StaticElement{
		NodeRole: provider.RoleTextArea,
		NodePID:  app.PID,
		Attrs: map[string]provider.Value{
			provider.AttrDescription: provider.StringValue("scratch buffer"),
			provider.AttrValue:       provider.StringValue("draft"),
		},
	}
	ghost := &provider.StaticElement{
		NodeRole: provider.RoleButton,
		Attrs: map[string]provider.Value{
			provider.AttrHelp: provider.StringValue("detached control"),
		},
	}
	menu := &provider.StaticElement{
		NodeRole:   provider.RoleMenu,
		NodePID:    app.PID,
		NodeParent: main,
		Attrs: map[string]provider.Value{
			provider.AttrTitle: provider.StringValue("File"),
		},
	}
	item := &provider.StaticElement{
		NodeRole:   provider.RoleMenuItem,
		NodePID:    app.PID,
		NodeParent: menu,
		Attrs: map[string]provider.Value{
			provider.AttrTitle: provider.StringValue("Save"),
		},
	}

	return &world{app: app, root: root, main: main, field: field,
		orphan: orphan, ghost: ghost, menu: menu, item: item}
}

var typedValues = []string{"h", "he", "hel", "hell", "hello"}

// step advances one notification. Steps mutate the world the way a user
// session would, so consecutive events tell a coherent story.
type step func(w *world) (string, provider.Element)

var script = []step{
	func(w *world) (string, provider.Element) {
		return provider.NotifApplicationActivated, w.root
	},
	func(w *world) (string, provider.Element) {
		return provider.NotifFocusedWindowChanged, w.main
	},
	func(w *world) (string, provider.Element) {
		return provider.NotifFocusedElementChanged, w.field
	},
	func(w *world) (string, provider.Element) {
		w.field.Attrs[provider.AttrValue] = provider.StringValue(typedValues[w.typed%len(typedValues)])
		w.typed++
		return provider.NotifValueChanged, w.field
	},
	func(w *world) (string, provider.Element) {
		w.field.Attrs[provider.AttrValue] = provider.StringValue(typedValues[w.typed%len(typedValues)])
		w.typed++
		return provider.NotifValueChanged, w.field
	},
	func(w *world) (string, provider.Element) {
		return provider.NotifSelectedTextChanged, w.field
	},
	// The scratch buffer has no parent chain; window context must come
	// from the application root's focused window.
	func(w *world) (string, provider.Element) {
		return provider.NotifValueChanged, w.orphan
	},
	func(w *world) (string, provider.Element) {
		w.moves++
		w.main.Attrs[provider.AttrPosition] = provider.PointValue(event.Point{
			X: 80 + float64(16*(w.moves%8)), Y: 60 + float64(12*(w.moves%8)),
		})
		return provider.NotifWindowMoved, w.main
	},
	func(w *world) (string, provider.Element) {
		w.main.Attrs[provider.AttrSize] = provider.SizeValue(event.Size{
			Width: 1280 - float64(32*(w.moves%4)), Height: 800 - float64(20*(w.moves%4)),
		})
		return provider.NotifWindowResized, w.main
	},
	func(w *world) (string, provider.Element) {
		w.main.Attrs[provider.AttrTitle] = provider.StringValue(
			fmt.Sprintf("%s - %s", w.app.Name, typedValues[len(typedValues)-1]))
		return provider.NotifTitleChanged, w.main
	},
	func(w *world) (string, provider.Element) {
		return provider.NotifMenuOpened, w.menu
	},
	func(w *world) (string, provider.Element) {
		return provider.NotifMenuItemSelected, w.item
	},
	func(w *world) (string, provider.Element) {
		return provider.NotifMenuClosed, w.menu
	},
	func(w *world) (string, provider.Element) {
		w.extra = &provider.StaticElement{
			NodeRole:   provider.RoleWindow,
			NodePID:    w.app.PID,
			NodeParent: w.root,
			Attrs: map[string]provider.Value{
				provider.AttrTitle:      provider.StringValue(w.app.Name + " - Settings"),
				provider.AttrIdentifier: provider.StringValue(fmt.Sprintf("w-%d-settings", w.app.PID)),
			},
		}
		return provider.NotifWindowCreated, w.extra
	},
	func(w *world) (string, provider.Element) {
		return provider.NotifSelectionChanged, w.main
	},
	// A control that never exposed a pid: application and window stay
	// null, element details still extract.
	func(w *world) (string, provider.Element) {
		return provider.NotifFocusedElementChanged, w.ghost
	},
	func(w *world) (string, provider.Element) {
		extra := w.extra
		w.extra = nil
		return provider.NotifElementDestroyed, extra
	},
	func(w *world) (string, provider.Element) {
		return provider.NotifApplicationDeactivated, w.root
	},
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

// Run ticks the script until ctx is cancelled.
func (p *Provider) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("sim provider started",
		"apps", len(p.worlds),
		"interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.emit()
		}
	}
}

// emit plays one script step for the active app, rotating the cast at
// the end of each pass.
func (p *Provider) emit() {
	p.mu.Lock()
	fn := p.fn
	names := p.names
	p.mu.Unlock()

	w := p.worlds[p.active]
	notification, el := script[p.step](w)

	p.step++
	if p.step == len(script) {
		p.step = 0
		p.active = (p.active + 1) % len(p.worlds)
	}

	if fn == nil || !names[notification] {
		return
	}
	fn(notification, el)
}

// Name implements provider.Apps over the cast.
func (p *Provider) Name(pid int32) (string, bool) {
	for _, w := range p.worlds {
		if w.app.PID == pid {
			return w.app.Name, true
		}
	}
	return "", false
}

// Element implements provider.Apps: the cast app's root element.
func (p *Provider) Element(pid int32) (provider.Element, bool) {
	for _, w := range p.worlds {
		if w.app.PID == pid {
			return w.root, true
		}
	}
	return nil, false
}
