package capture

import (
	"testing"
	"time"

	"github.com/axstream/axstream/internal/event"
	"github.com/axstream/axstream/internal/provider"
)

type fakeApps struct {
	names map[int32]string
	roots map[int32]provider.Element
}

func (f *fakeApps) Name(pid int32) (string, bool) {
	s, ok := f.names[pid]
	return s, ok
}

func (f *fakeApps) Element(pid int32) (provider.Element, bool) {
	el, ok := f.roots[pid]
	return el, ok
}

func newTestNormalizer(apps *fakeApps) *Normalizer {
	if apps == nil {
		apps = &fakeApps{}
	}
	return NewNormalizer(apps)
}

func TestNormalize_NotificationMapping(t *testing.T) {
	tests := []struct {
		notification string
		want         event.Type
	}{
		{provider.NotifApplicationActivated, event.ApplicationActivated},
		{provider.NotifApplicationDeactivated, event.ApplicationDeactivated},
		{provider.NotifFocusedWindowChanged, event.WindowFocused},
		{provider.NotifWindowCreated, event.WindowCreated},
		{provider.NotifWindowMoved, event.WindowMoved},
		{provider.NotifWindowResized, event.WindowResized},
		{provider.NotifFocusedElementChanged, event.ElementFocused},
		{provider.NotifValueChanged, event.ValueChanged},
		{provider.NotifElementDestroyed, event.ElementDestroyed},
		{provider.NotifMenuOpened, event.MenuOpened},
		{provider.NotifMenuClosed, event.MenuClosed},
		{provider.NotifMenuItemSelected, event.MenuItemSelected},
		{provider.NotifSelectionChanged, event.SelectionChanged},
		{provider.NotifSelectedTextChanged, event.SelectedTextChanged},
		{provider.NotifTitleChanged, event.TitleChanged},
	}

	n := newTestNormalizer(nil)
	for _, tt := range tests {
		ev, ok := n.Normalize(tt.notification, &provider.StaticElement{NodeRole: provider.RoleButton})
		if !ok {
			t.Errorf("%s: expected recognized", tt.notification)
			continue
		}
		if ev.Type != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.notification, tt.want, ev.Type)
		}
	}
}

func TestNormalize_UnrecognizedNotificationIgnored(t *testing.T) {
	n := newTestNormalizer(nil)

	for _, name := range []string{"AXRowCountChanged", "AXAnnouncementRequested", ""} {
		if _, ok := n.Normalize(name, &provider.StaticElement{}); ok {
			t.Errorf("%q: expected ignored", name)
		}
	}
}

func TestNormalize_FullExtraction(t *testing.T) {
	win := &provider.StaticElement{
		NodeRole: provider.RoleWindow,
		NodePID:  412,
		Attrs: map[string]provider.Value{
			provider.AttrTitle:      provider.StringValue("Inbox"),
			provider.AttrIdentifier: provider.StringValue("w-main"),
		},
	}
	field := &provider.StaticElement{
		NodeRole:   provider.RoleTextField,
		NodePID:    412,
		NodeParent: win,
		Attrs: map[string]provider.Value{
			provider.AttrTitle:    provider.StringValue("Search"),
			provider.AttrValue:    provider.StringValue("hello"),
			provider.AttrPosition: provider.PointValue(event.Point{X: 10, Y: 20}),
			provider.AttrSize:     provider.SizeValue(event.Size{Width: 200, Height: 24}),
		},
	}

	n := newTestNormalizer(&fakeApps{names: map[int32]string{412: "Mail"}})
	ev, ok := n.Normalize(provider.NotifValueChanged, field)
	if !ok {
		t.Fatal("expected recognized notification")
	}

	if ev.Application == nil || ev.Application.Name == nil || *ev.Application.Name != "Mail" {
		t.Errorf("application name not extracted: %+v", ev.Application)
	}
	if ev.Application.PID == nil || *ev.Application.PID != 412 {
		t.Errorf("application pid not extracted: %+v", ev.Application)
	}
	if ev.Window == nil || ev.Window.Title == nil || *ev.Window.Title != "Inbox" {
		t.Errorf("window title not extracted: %+v", ev.Window)
	}
	if ev.Window.ID == nil || *ev.Window.ID != "w-main" {
		t.Errorf("window id not extracted: %+v", ev.Window)
	}
	if ev.Element == nil {
		t.Fatal("element details missing")
	}
	if ev.Element.Role == nil || *ev.Element.Role != provider.RoleTextField {
		t.Errorf("role not extracted: %+v", ev.Element)
	}
	if ev.Element.Identifier == nil || *ev.Element.Identifier != "Search" {
		t.Errorf("identifier not extracted: %+v", ev.Element)
	}
	if ev.Element.Value != "hello" {
		t.Errorf("value not extracted: %v", ev.Element.Value)
	}
	if ev.Element.Position == nil || ev.Element.Position.X != 10 || ev.Element.Position.Y != 20 {
		t.Errorf("position not extracted: %+v", ev.Element.Position)
	}
	if ev.Element.Size == nil || ev.Element.Size.Width != 200 || ev.Element.Size.Height != 24 {
		t.Errorf("size not extracted: %+v", ev.Element.Size)
	}
}

func TestNormalize_FieldsFailIndependently(t *testing.T) {
	t.Run("NoPIDKeepsElementDetails", func(t *testing.T) {
		// pid lookup fails; role still extracts, application section absent.
		el := &provider.StaticElement{NodeRole: provider.RoleButton}

		n := newTestNormalizer(nil)
		ev, ok := n.Normalize(provider.NotifFocusedElementChanged, el)
		if !ok {
			t.Fatal("expected recognized")
		}
		if ev.Application != nil {
			t.Errorf("expected nil application without pid, got %+v", ev.Application)
		}
		if ev.Element == nil || ev.Element.Role == nil || *ev.Element.Role != provider.RoleButton {
			t.Errorf("role extraction must not depend on pid: %+v", ev.Element)
		}
	})

	t.Run("NameLookupFailureKeepsPID", func(t *testing.T) {
		el := &provider.StaticElement{NodeRole: provider.RoleButton, NodePID: 999}

		n := newTestNormalizer(&fakeApps{}) // resolver knows nothing
		ev, _ := n.Normalize(provider.NotifValueChanged, el)
		if ev.Application == nil || ev.Application.PID == nil || *ev.Application.PID != 999 {
			t.Fatalf("pid must survive name lookup failure: %+v", ev.Application)
		}
		if ev.Application.Name != nil {
			t.Errorf("expected nil name, got %q", *ev.Application.Name)
		}
	})

	t.Run("NilElement", func(t *testing.T) {
		n := newTestNormalizer(nil)
		ev, ok := n.Normalize(provider.NotifApplicationActivated, nil)
		if !ok {
			t.Fatal("expected recognized")
		}
		if ev.Application != nil || ev.Window != nil || ev.Element != nil {
			t.Errorf("nil element must produce bare event: %+v", ev)
		}
	})
}

func TestNormalize_IdentifierFallbackChain(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]provider.Value
		want  string // empty means identifier absent
	}{
		{
			name:  "TitleWins",
			attrs: map[string]provider.Value{provider.AttrTitle: provider.StringValue("T"), provider.AttrDescription: provider.StringValue("D")},
			want:  "T",
		},
		{
			name:  "DescriptionWhenNoTitle",
			attrs: map[string]provider.Value{provider.AttrDescription: provider.StringValue("D"), provider.AttrHelp: provider.StringValue("H")},
			want:  "D",
		},
		{
			name:  "HelpLast",
			attrs: map[string]provider.Value{provider.AttrHelp: provider.StringValue("H")},
			want:  "H",
		},
		{
			name:  "EmptyTitleFallsThrough",
			attrs: map[string]provider.Value{provider.AttrTitle: provider.StringValue(""), provider.AttrDescription: provider.StringValue("D")},
			want:  "D",
		},
		{
			name:  "NothingAvailable",
			attrs: nil,
			want:  "",
		},
	}

	n := newTestNormalizer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := &provider.StaticElement{NodeRole: provider.RoleButton, Attrs: tt.attrs}
			ev, _ := n.Normalize(provider.NotifValueChanged, el)

			if tt.want == "" {
				if ev.Element.Identifier != nil {
					t.Errorf("expected absent identifier, got %q", *ev.Element.Identifier)
				}
				return
			}
			if ev.Element.Identifier == nil || *ev.Element.Identifier != tt.want {
				t.Errorf("expected identifier %q, got %+v", tt.want, ev.Element.Identifier)
			}
		})
	}
}

func TestNormalize_WindowResolution(t *testing.T) {
	t.Run("ElementItselfIsWindow", func(t *testing.T) {
		win := &provider.StaticElement{
			NodeRole: provider.RoleWindow,
			Attrs:    map[string]provider.Value{provider.AttrTitle: provider.StringValue("Self")},
		}

		n := newTestNormalizer(nil)
		ev, _ := n.Normalize(provider.NotifWindowCreated, win)
		if ev.Window == nil || ev.Window.Title == nil || *ev.Window.Title != "Self" {
			t.Errorf("window must resolve to the element itself: %+v", ev.Window)
		}
	})

	t.Run("AncestorWindow", func(t *testing.T) {
		win := &provider.StaticElement{
			NodeRole: provider.RoleWindow,
			Attrs:    map[string]provider.Value{provider.AttrTitle: provider.StringValue("Above")},
		}
		group := &provider.StaticElement{NodeRole: "AXGroup", NodeParent: win}
		leaf := &provider.StaticElement{NodeRole: provider.RoleButton, NodeParent: group}

		n := newTestNormalizer(nil)
		ev, _ := n.Normalize(provider.NotifValueChanged, leaf)
		if ev.Window == nil || ev.Window.Title == nil || *ev.Window.Title != "Above" {
			t.Errorf("window must resolve via ancestors: %+v", ev.Window)
		}
	})

	t.Run("FocusedWindowFallback", func(t *testing.T) {
		// No window in the ancestor chain; the app root exposes one.
		focused := &provider.StaticElement{
			NodeRole: provider.RoleWindow,
			Attrs:    map[string]provider.Value{provider.AttrTitle: provider.StringValue("Focused")},
		}
		root := &provider.StaticElement{
			NodeRole: provider.RoleApplication,
			Attrs:    map[string]provider.Value{provider.AttrFocusedWindow: provider.ElementValue(focused)},
		}
		leaf := &provider.StaticElement{NodeRole: provider.RoleButton, NodePID: 55}

		apps := &fakeApps{roots: map[int32]provider.Element{55: root}}
		n := newTestNormalizer(apps)
		ev, _ := n.Normalize(provider.NotifValueChanged, leaf)
		if ev.Window == nil || ev.Window.Title == nil || *ev.Window.Title != "Focused" {
			t.Errorf("window must resolve via app focused window: %+v", ev.Window)
		}
	})

	t.Run("NoWindowAnywhere", func(t *testing.T) {
		leaf := &provider.StaticElement{NodeRole: provider.RoleButton, NodePID: 55}

		n := newTestNormalizer(&fakeApps{})
		ev, _ := n.Normalize(provider.NotifValueChanged, leaf)
		if ev.Window != nil {
			t.Errorf("expected absent window, got %+v", ev.Window)
		}
	})

	t.Run("CyclicParentChainTerminates", func(t *testing.T) {
		a := &provider.StaticElement{NodeRole: "AXGroup"}
		b := &provider.StaticElement{NodeRole: "AXGroup", NodeParent: a}
		a.NodeParent = b

		n := newTestNormalizer(nil)
		ev, _ := n.Normalize(provider.NotifValueChanged, a)
		if ev.Window != nil {
			t.Errorf("cycle must resolve to no window, got %+v", ev.Window)
		}
	})

	t.Run("TitlelessWindowStillReported", func(t *testing.T) {
		win := &provider.StaticElement{NodeRole: provider.RoleWindow}

		n := newTestNormalizer(nil)
		ev, _ := n.Normalize(provider.NotifWindowMoved, win)
		if ev.Window == nil {
			t.Fatal("found window must be reported even without a title")
		}
		if ev.Window.Title != nil || ev.Window.ID != nil {
			t.Errorf("expected null title and id, got %+v", ev.Window)
		}
	})
}

func TestNormalize_ValueKinds(t *testing.T) {
	tests := []struct {
		name string
		v    provider.Value
		want any
	}{
		{"String", provider.StringValue("abc"), "abc"},
		{"Int", provider.IntValue(7), int64(7)},
		{"Bool", provider.BoolValue(true), true},
		{"GeometryHasNoWireForm", provider.PointValue(event.Point{X: 1, Y: 2}), nil},
	}

	n := newTestNormalizer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := &provider.StaticElement{
				NodeRole: provider.RoleTextField,
				Attrs:    map[string]provider.Value{provider.AttrValue: tt.v},
			}
			ev, _ := n.Normalize(provider.NotifValueChanged, el)
			if ev.Element.Value != tt.want {
				t.Errorf("expected value %v, got %v", tt.want, ev.Element.Value)
			}
		})
	}
}

func TestNormalize_TimestampsMonotonic(t *testing.T) {
	// A stepping wall clock must not produce time-travelling events.
	script := []int64{100, 90, 95, 200}
	idx := 0

	n := newTestNormalizer(nil)
	n.clock = func() time.Time {
		ms := script[idx]
		idx++
		return time.UnixMilli(ms)
	}

	want := []int64{100, 100, 100, 200}
	for i, w := range want {
		ev, _ := n.Normalize(provider.NotifValueChanged, &provider.StaticElement{NodeRole: provider.RoleButton})
		if got := ev.Timestamp.UnixMilli(); got != w {
			t.Errorf("event %d: expected ts %d, got %d", i, w, got)
		}
	}
}
