package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/axstream/axstream/internal/event"
)

func TestValue_JSON(t *testing.T) {
	when := time.Date(2024, 4, 5, 17, 34, 38, 0, time.UTC)

	tests := []struct {
		name string
		v    Value
		want any
	}{
		{name: "String", v: StringValue("hello"), want: "hello"},
		{name: "Int", v: IntValue(42), want: int64(42)},
		{name: "Float", v: FloatValue(0.75), want: 0.75},
		{name: "Bool", v: BoolValue(true), want: true},
		{name: "Time", v: TimeValue(when), want: "2024-04-05T17:34:38Z"},
		{name: "PointHasNoWireForm", v: PointValue(event.Point{X: 1, Y: 2}), want: nil},
		{name: "SizeHasNoWireForm", v: SizeValue(event.Size{Width: 3, Height: 4}), want: nil},
		{name: "ElementHasNoWireForm", v: ElementValue(&StaticElement{NodeRole: RoleWindow}), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.JSON(); got != tt.want {
				t.Errorf("JSON() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	if s, ok := StringValue("x").AsString(); !ok || s != "x" {
		t.Errorf("AsString on string value: got %q, %v", s, ok)
	}
	if _, ok := IntValue(1).AsString(); ok {
		t.Error("AsString on int value must report false")
	}

	p, ok := PointValue(event.Point{X: 10, Y: 20}).AsPoint()
	if !ok || p.X != 10 || p.Y != 20 {
		t.Errorf("AsPoint: got %+v, %v", p, ok)
	}

	sz, ok := SizeValue(event.Size{Width: 5, Height: 6}).AsSize()
	if !ok || sz.Width != 5 || sz.Height != 6 {
		t.Errorf("AsSize: got %+v, %v", sz, ok)
	}

	win := &StaticElement{NodeRole: RoleWindow}
	if el, ok := ElementValue(win).AsElement(); !ok || el != Element(win) {
		t.Error("AsElement must return the wrapped element")
	}
	if _, ok := ElementValue(nil).AsElement(); ok {
		t.Error("AsElement on nil element must report false")
	}
}

func TestStaticElement_AbsentFields(t *testing.T) {
	el := &StaticElement{}

	if _, ok := el.Role(); ok {
		t.Error("empty role must read as absent")
	}
	if _, ok := el.PID(); ok {
		t.Error("zero pid must read as absent")
	}
	if _, ok := el.Parent(); ok {
		t.Error("nil parent must read as absent")
	}
	if _, ok := el.Attr(AttrTitle); ok {
		t.Error("missing attribute must read as absent")
	}
}

func TestStaticElement_ParentChain(t *testing.T) {
	app := &StaticElement{NodeRole: RoleApplication, NodePID: 100}
	win := &StaticElement{NodeRole: RoleWindow, NodePID: 100, NodeParent: app,
		Attrs: map[string]Value{AttrTitle: StringValue("Inbox")}}
	field := &StaticElement{NodeRole: RoleTextField, NodePID: 100, NodeParent: win}

	p, ok := field.Parent()
	if !ok {
		t.Fatal("field must have a parent")
	}
	if role, _ := p.Role(); role != RoleWindow {
		t.Errorf("expected window parent, got role %q", role)
	}

	title, ok := p.Attr(AttrTitle)
	if !ok {
		t.Fatal("window must expose a title")
	}
	if s, _ := title.AsString(); s != "Inbox" {
		t.Errorf("expected title Inbox, got %q", s)
	}
}

func TestKnownNotifications(t *testing.T) {
	names := KnownNotifications()
	if len(names) != 15 {
		t.Fatalf("expected 15 notification names, got %d", len(names))
	}
	if names[0] != NotifApplicationActivated || names[len(names)-1] != NotifTitleChanged {
		t.Error("notification order must be stable")
	}

	// Callers own the returned slice.
	names[0] = "mutated"
	if KnownNotifications()[0] != NotifApplicationActivated {
		t.Error("mutating the returned slice must not affect later calls")
	}
}

func TestHandleFunc(t *testing.T) {
	called := false
	h := HandleFunc(func() error {
		called = true
		return nil
	})
	if err := h.Close(); err != nil || !called {
		t.Errorf("Close: err=%v called=%v", err, called)
	}
}

func TestNewNative_ReportsNotSupported(t *testing.T) {
	_, err := NewNative()
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}
