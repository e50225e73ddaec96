// Package hostapps resolves application context from the host process
// table.
package hostapps

import (
	"github.com/shirou/gopsutil/v3/process"

	"github.com/axstream/axstream/internal/provider"
)

// Resolver implements provider.Apps over the live process table. Name
// lookups hit the process table on every call.
type Resolver struct{}

func New() *Resolver { return &Resolver{} }

// Name returns the executable name for pid.
func (*Resolver) Name(pid int32) (string, bool) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", false
	}
	name, err := p.Name()
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// Element reports false: the process table exposes no accessibility tree.
// Focused-window fallback through the app root is a native-backend
// capability.
func (*Resolver) Element(_ int32) (provider.Element, bool) { return nil, false }

// App is one running process, as sampled for synthetic scenarios.
type App struct {
	PID  int32
	Name string
}

// Sample returns up to n running processes with resolvable names. Used to
// seed the sim provider with pids that exist on this host.
func Sample(n int) []App {
	procs, err := process.Processes()
	if err != nil {
		return nil
	}
	out := make([]App, 0, n)
	for _, p := range procs {
		if len(out) >= n {
			break
		}
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		out = append(out, App{PID: p.Pid, Name: name})
	}
	return out
}
