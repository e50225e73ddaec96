package provider

import (
	"time"

	"github.com/axstream/axstream/internal/event"
)

// Kind discriminates the dynamic type of an attribute Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindPoint
	KindSize
	KindElement // reference to another tree node, e.g. AttrFocusedWindow
)

var kindNames = map[Kind]string{
	KindString:  "string",
	KindInt:     "int",
	KindFloat:   "float",
	KindBool:    "bool",
	KindTime:    "time",
	KindPoint:   "point",
	KindSize:    "size",
	KindElement: "element",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Value is one typed accessibility attribute value. Providers build values
// with the typed constructors; an OS type outside this set is simply not
// constructed (the Attr call reports ok=false), mirroring how unhandled
// platform types are skipped rather than errored on.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bit  bool
	ts   time.Time
	pt   event.Point
	sz   event.Size
	el   Element
}

func StringValue(s string) Value     { return Value{kind: KindString, str: s} }
func IntValue(n int64) Value         { return Value{kind: KindInt, num: n} }
func FloatValue(f float64) Value     { return Value{kind: KindFloat, flt: f} }
func BoolValue(v bool) Value         { return Value{kind: KindBool, bit: v} }
func TimeValue(t time.Time) Value    { return Value{kind: KindTime, ts: t} }
func PointValue(p event.Point) Value { return Value{kind: KindPoint, pt: p} }
func SizeValue(s event.Size) Value   { return Value{kind: KindSize, sz: s} }
func ElementValue(el Element) Value  { return Value{kind: KindElement, el: el} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsPoint() (event.Point, bool) { return v.pt, v.kind == KindPoint }

func (v Value) AsSize() (event.Size, bool) { return v.sz, v.kind == KindSize }

func (v Value) AsElement() (Element, bool) {
	if v.kind != KindElement || v.el == nil {
		return nil, false
	}
	return v.el, true
}

// JSON converts the value to its wire representation. Times render as
// RFC 3339 strings. Geometry and element references have no wire form and
// yield nil, so the enclosing field stays null.
func (v Value) JSON() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.bit
	case KindTime:
		return v.ts.Format(time.RFC3339)
	default:
		return nil
	}
}
