// Package provider defines the boundary between the capture pipeline and
// the platform accessibility layer. Implementations translate an OS
// notification stream (synthetic, replayed, or native) into callbacks the
// capture runner normalizes into wire events.
package provider

import (
	"context"
	"errors"
)

// ErrNotSupported reports that no native accessibility backend exists for
// the current platform in this build.
var ErrNotSupported = errors.New("native accessibility capture not supported")

// NotificationFunc receives one accessibility notification. The element is
// the node the notification fired on; it may already be stale by the time
// the callback inspects it, which is why every Element accessor is
// fallible.
type NotificationFunc func(notification string, element Element)

// Element is a node in the platform accessibility tree. Accessors report
// ok=false when the underlying object no longer answers or lacks the
// attribute; absence is an answer, not an error, and callers must treat
// each lookup independently.
type Element interface {
	// Role returns the element's accessibility role, e.g. "AXWindow".
	Role() (string, bool)

	// Attr returns a named attribute value, e.g. AttrTitle or AttrValue.
	Attr(name string) (Value, bool)

	// Parent returns the containing element, if any. Walking Parent links
	// leads to the application root.
	Parent() (Element, bool)

	// PID returns the id of the process that owns this element.
	PID() (int32, bool)
}

// Apps resolves process-level context the element tree alone cannot
// answer.
type Apps interface {
	// Name returns the application name for a pid.
	Name(pid int32) (string, bool)

	// Element returns the application's root accessibility element for a
	// pid, when the provider exposes one. The root's AttrFocusedWindow
	// attribute is the fallback source for window context.
	Element(pid int32) (Element, bool)
}

// Handle undoes a notification registration.
type Handle interface {
	Close() error
}

// HandleFunc adapts a plain function to the Handle interface.
type HandleFunc func() error

func (f HandleFunc) Close() error { return f() }

// Provider is a source of accessibility notifications.
//
// Subscribe registers interest in the given notification names and must be
// called before Run. The callback runs on the provider's capture
// goroutine, one notification at a time; it must not block, or the
// platform queue backs up.
//
// Run pumps notifications until ctx is cancelled and then returns.
// Providers that need an OS run loop lock their goroutine to a thread
// themselves; callers just give Run its own goroutine.
type Provider interface {
	Subscribe(names []string, fn NotificationFunc) (Handle, error)
	Run(ctx context.Context) error
}
