package server

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// Probe reports why a component is not ready, or nil when it is.
type Probe func(ctx context.Context) error

// Checker is a HealthChecker built from named component probes. It is
// alive until SetAlive(false) and ready when every probe passes.
type Checker struct {
	alive  atomic.Bool
	mu     sync.RWMutex
	probes map[string]Probe
}

var _ HealthChecker = (*Checker)(nil)

// NewChecker returns a live checker without probes.
func NewChecker() *Checker {
	c := &Checker{probes: make(map[string]Probe)}
	c.alive.Store(true)
	return c
}

// Register adds or replaces the probe of a component.
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = probe
}

// SetAlive changes the liveness state.
func (c *Checker) SetAlive(alive bool) {
	c.alive.Store(alive)
}

// Liveness reports whether the process should keep running.
func (c *Checker) Liveness() bool {
	return c.alive.Load()
}

// Readiness runs every probe and returns the per-component status.
func (c *Checker) Readiness(ctx context.Context) (bool, map[string]string) {
	c.mu.RLock()
	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	probes := make(map[string]Probe, len(c.probes))
	for name, probe := range c.probes {
		probes[name] = probe
	}
	c.mu.RUnlock()

	slices.Sort(names)

	ready := c.Liveness()
	status := make(map[string]string, len(names))
	for _, name := range names {
		if err := probes[name](ctx); err != nil {
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}
	return ready, status
}
