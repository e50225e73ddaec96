package provider

import (
	"fmt"
	"runtime"
)

// NewNative returns the accessibility capture backend for the current
// platform. No native backend ships in this build; each platform reports a
// descriptive error so callers can fall back to the sim or replay
// providers. The macos bridge (AXObserver over cgo) is the first one
// planned.
func NewNative() (Provider, error) {
	switch runtime.GOOS {
	case "darwin":
		return nil, fmt.Errorf("%w: darwin backend needs the cgo AXObserver bridge", ErrNotSupported)
	case "windows":
		return nil, fmt.Errorf("%w: windows backend needs a UI Automation bridge", ErrNotSupported)
	default:
		return nil, fmt.Errorf("%w: no AT-SPI bridge for %s", ErrNotSupported, runtime.GOOS)
	}
}
