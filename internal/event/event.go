// Package event defines the wire schema for UI accessibility events.
//
// Every event broadcast by the server is one JSON object in this shape.
// Field keys and the millisecond timestamp encoding are a compatibility
// contract with existing consumers; changes here are wire changes.
package event

import (
	"fmt"
	"strconv"
	"time"
)

// Type identifies the kind of UI change an event describes. The set is
// additive: consumers must pass through values they do not recognize.
type Type string

const (
	ApplicationActivated   Type = "ApplicationActivated"   // frontmost application changed
	ApplicationDeactivated Type = "ApplicationDeactivated" // application lost frontmost status
	WindowFocused          Type = "WindowFocused"
	WindowCreated          Type = "WindowCreated"
	WindowMoved            Type = "WindowMoved"
	WindowResized          Type = "WindowResized"
	ElementFocused         Type = "ElementFocused" // keyboard focus moved to an element
	ValueChanged           Type = "ValueChanged"
	ElementDestroyed       Type = "ElementDestroyed"
	MenuOpened             Type = "MenuOpened"
	MenuClosed             Type = "MenuClosed"
	MenuItemSelected       Type = "MenuItemSelected"
	SelectionChanged       Type = "SelectionChanged" // selected children of a container changed
	SelectedTextChanged    Type = "SelectedTextChanged"
	TitleChanged           Type = "TitleChanged"
)

// Timestamp is a wall-clock instant carried on the wire as integer
// milliseconds since the Unix epoch, UTC.
type Timestamp struct {
	time.Time
}

// Now returns the current instant at wire precision.
func Now() Timestamp { return At(time.Now()) }

// At converts t to wire precision (milliseconds, UTC) so that a constructed
// event and its decoded form compare equal.
func At(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, ts.UnixMilli(), 10), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp must be integer milliseconds: %w", err)
	}
	ts.Time = time.UnixMilli(ms).UTC()
	return nil
}

// Application identifies the process an event originated from.
type Application struct {
	Name *string `json:"name"`
	PID  *int32  `json:"pid"`
}

// Window locates the top-level window an event occurred in. ID is the
// platform window identifier when the provider exposes one.
type Window struct {
	Title *string `json:"title"`
	ID    *string `json:"id"`
}

// Point is a screen position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an on-screen extent in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element describes the UI element an event concerns. Extraction is
// best-effort per field: a failed lookup leaves that field null without
// suppressing the event.
type Element struct {
	Role       *string `json:"role"`
	Identifier *string `json:"identifier"` // display text: title, description, or help, first found
	Value      any     `json:"value"`
	Position   *Point  `json:"position"`
	Size       *Size   `json:"size"`
}

// Event is one UI change notification in wire form. Optional sections are
// pointers without omitempty on purpose: absent data marshals as null, and
// consumers rely on every key being present.
type Event struct {
	Type        Type         `json:"event_type"`
	Timestamp   Timestamp    `json:"timestamp"`
	Application *Application `json:"application"`
	Window      *Window      `json:"window"`
	Element     *Element     `json:"element"`
	Data        any          `json:"event_specific_data"`
}
