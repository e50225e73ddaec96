package provider

// StaticElement is an in-memory Element. The synthetic and replay
// providers build their trees out of these, and tests use them to script
// exact extraction outcomes. Zero-valued fields read as absent: an empty
// role or pid makes the accessor report ok=false, the same shape a stale
// native element produces.
type StaticElement struct {
	NodeRole   string
	NodePID    int32
	NodeParent Element
	Attrs      map[string]Value
}

func (e *StaticElement) Role() (string, bool) {
	return e.NodeRole, e.NodeRole != ""
}

func (e *StaticElement) PID() (int32, bool) {
	return e.NodePID, e.NodePID != 0
}

func (e *StaticElement) Attr(name string) (Value, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *StaticElement) Parent() (Element, bool) {
	return e.NodeParent, e.NodeParent != nil
}
