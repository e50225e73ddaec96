// Package capture turns raw provider notifications into pipeline events.
// Everything here runs on the provider's capture goroutine and must never
// block it.
package capture

import (
	"time"

	"github.com/axstream/axstream/internal/event"
	"github.com/axstream/axstream/internal/provider"
)

// eventTypes is the recognized notification vocabulary. Anything outside
// it is ignored, not errored: providers surface more notification kinds
// than the wire schema carries.
var eventTypes = map[string]event.Type{
	provider.NotifApplicationActivated:   event.ApplicationActivated,
	provider.NotifApplicationDeactivated: event.ApplicationDeactivated,
	provider.NotifFocusedWindowChanged:   event.WindowFocused,
	provider.NotifWindowCreated:          event.WindowCreated,
	provider.NotifWindowMoved:            event.WindowMoved,
	provider.NotifWindowResized:          event.WindowResized,
	provider.NotifFocusedElementChanged:  event.ElementFocused,
	provider.NotifValueChanged:           event.ValueChanged,
	provider.NotifElementDestroyed:       event.ElementDestroyed,
	provider.NotifMenuOpened:             event.MenuOpened,
	provider.NotifMenuClosed:             event.MenuClosed,
	provider.NotifMenuItemSelected:       event.MenuItemSelected,
	provider.NotifSelectionChanged:       event.SelectionChanged,
	provider.NotifSelectedTextChanged:    event.SelectedTextChanged,
	provider.NotifTitleChanged:           event.TitleChanged,
}

// windowSearchDepth bounds the ancestor walk. Accessibility trees are
// shallow; the bound exists so a cyclic parent chain from a misbehaving
// provider cannot hang capture.
const windowSearchDepth = 32

// Normalizer maps notifications to wire events. It runs on the single
// capture goroutine and is not safe for concurrent use.
type Normalizer struct {
	apps   provider.Apps
	clock  func() time.Time
	lastMS int64 // wall clock can step backwards; event timestamps must not
}

func NewNormalizer(apps provider.Apps) *Normalizer {
	return &Normalizer{apps: apps, clock: time.Now}
}

// Normalize converts one notification into a wire event. ok is false for
// notifications outside the recognized vocabulary. Extraction is
// best-effort per field: any individual lookup may fail and leaves only
// its own field empty, never suppressing the event or the other fields.
func (n *Normalizer) Normalize(notification string, el provider.Element) (event.Event, bool) {
	typ, ok := eventTypes[notification]
	if !ok {
		return event.Event{}, false
	}

	ev := event.Event{Type: typ, Timestamp: n.stamp()}
	if el == nil {
		return ev, true
	}

	pid, havePID := el.PID()
	ev.Application = n.application(pid, havePID)
	ev.Window = n.window(el, pid, havePID)
	ev.Element = elementDetails(el)
	return ev, true
}

// stamp clamps the clock so timestamps are monotonically non-decreasing
// within this capture stream.
func (n *Normalizer) stamp() event.Timestamp {
	ms := n.clock().UnixMilli()
	if ms < n.lastMS {
		ms = n.lastMS
	}
	n.lastMS = ms
	return event.At(time.UnixMilli(ms))
}

func (n *Normalizer) application(pid int32, havePID bool) *event.Application {
	if !havePID {
		return nil
	}
	app := &event.Application{PID: &pid}
	if name, ok := n.apps.Name(pid); ok {
		app.Name = &name
	}
	return app
}

// window resolves the top-level window for an event, trying in order: the
// element itself, its ancestors, and finally the owning application's
// focused window.
func (n *Normalizer) window(el provider.Element, pid int32, havePID bool) *event.Window {
	win := findWindow(el)
	if win == nil && havePID {
		win = n.focusedWindow(pid)
	}
	if win == nil {
		return nil
	}

	info := &event.Window{}
	if title, ok := stringAttr(win, provider.AttrTitle); ok {
		info.Title = &title
	}
	if id, ok := stringAttr(win, provider.AttrIdentifier); ok {
		info.ID = &id
	}
	return info
}

func findWindow(el provider.Element) provider.Element {
	cur := el
	for i := 0; i < windowSearchDepth && cur != nil; i++ {
		if role, ok := cur.Role(); ok && role == provider.RoleWindow {
			return cur
		}
		parent, ok := cur.Parent()
		if !ok {
			return nil
		}
		cur = parent
	}
	return nil
}

func (n *Normalizer) focusedWindow(pid int32) provider.Element {
	root, ok := n.apps.Element(pid)
	if !ok {
		return nil
	}
	v, ok := root.Attr(provider.AttrFocusedWindow)
	if !ok {
		return nil
	}
	win, ok := v.AsElement()
	if !ok {
		return nil
	}
	return win
}

func elementDetails(el provider.Element) *event.Element {
	details := &event.Element{}
	if role, ok := el.Role(); ok {
		details.Role = &role
	}
	if id, ok := identifier(el); ok {
		details.Identifier = &id
	}
	if v, ok := el.Attr(provider.AttrValue); ok {
		details.Value = v.JSON()
	}
	if v, ok := el.Attr(provider.AttrPosition); ok {
		if p, ok := v.AsPoint(); ok {
			details.Position = &p
		}
	}
	if v, ok := el.Attr(provider.AttrSize); ok {
		if s, ok := v.AsSize(); ok {
			details.Size = &s
		}
	}
	return details
}

// identifier resolves the element's display text: title, then
// description, then help. First non-empty string wins.
func identifier(el provider.Element) (string, bool) {
	for _, attr := range []string{provider.AttrTitle, provider.AttrDescription, provider.AttrHelp} {
		if s, ok := stringAttr(el, attr); ok {
			return s, true
		}
	}
	return "", false
}

// stringAttr reads a string attribute, treating wrong-typed and empty
// values as absent.
func stringAttr(el provider.Element, name string) (string, bool) {
	v, ok := el.Attr(name)
	if !ok {
		return "", false
	}
	s, ok := v.AsString()
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
