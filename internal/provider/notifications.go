package provider

// Accessibility notification names, as the platform publishes them. The
// capture layer registers for exactly this vocabulary; anything else a
// backend surfaces is ignored upstream.
const (
	NotifApplicationActivated   = "AXApplicationActivated"
	NotifApplicationDeactivated = "AXApplicationDeactivated"
	NotifFocusedWindowChanged   = "AXFocusedWindowChanged"
	NotifWindowCreated          = "AXWindowCreated"
	NotifWindowMoved            = "AXWindowMoved"
	NotifWindowResized          = "AXWindowResized"
	NotifFocusedElementChanged  = "AXFocusedUIElementChanged"
	NotifValueChanged           = "AXValueChanged"
	NotifElementDestroyed       = "AXUIElementDestroyed"
	NotifMenuOpened             = "AXMenuOpened"
	NotifMenuClosed             = "AXMenuClosed"
	NotifMenuItemSelected       = "AXMenuItemSelected"
	NotifSelectionChanged       = "AXSelectedChildrenChanged"
	NotifSelectedTextChanged    = "AXSelectedTextChanged"
	NotifTitleChanged           = "AXTitleChanged"
)

// Attribute names the capture layer reads from elements.
const (
	AttrTitle         = "AXTitle"
	AttrDescription   = "AXDescription"
	AttrHelp          = "AXHelp"
	AttrValue         = "AXValue"
	AttrPosition      = "AXPosition"
	AttrSize          = "AXSize"
	AttrIdentifier    = "AXIdentifier"
	AttrFocusedWindow = "AXFocusedWindow"
)

// Roles the capture layer and the synthetic provider care about.
const (
	RoleApplication = "AXApplication"
	RoleWindow      = "AXWindow"
	RoleMenu        = "AXMenu"
	RoleMenuItem    = "AXMenuItem"
	RoleTextField   = "AXTextField"
	RoleTextArea    = "AXTextArea"
	RoleButton      = "AXButton"
)

var knownNotifications = []string{
	NotifApplicationActivated,
	NotifApplicationDeactivated,
	NotifFocusedWindowChanged,
	NotifWindowCreated,
	NotifWindowMoved,
	NotifWindowResized,
	NotifFocusedElementChanged,
	NotifValueChanged,
	NotifElementDestroyed,
	NotifMenuOpened,
	NotifMenuClosed,
	NotifMenuItemSelected,
	NotifSelectionChanged,
	NotifSelectedTextChanged,
	NotifTitleChanged,
}

// KnownNotifications returns the full recognized notification vocabulary
// in a fixed order. Callers own the returned slice.
func KnownNotifications() []string {
	out := make([]string, len(knownNotifications))
	copy(out, knownNotifications)
	return out
}
