// Package runtime aggregates the collaborators the Attack Engine and
// Handshake Assembler share, mirroring the teacher's OxideRuntime
// aggregate (original_source/src/attack.rs: `oxide: &mut OxideRuntime`).
// Per the Design Notes this is passed explicitly rather than held as a
// global, so tests can build one with a stub transmitter and a virtual
// clock.
package runtime

import (
	"sync"

	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
	"github.com/lcalzada-xor/wmapattack/internal/core/ports"
)

// Context is the runtime aggregate spec.md §2 calls the "Runtime
// Context": the device registry, transmitter, status log, counters, the
// rogue client MAC, the target allow-list, and the notx (dry-run) flag.
type Context struct {
	Registry    ports.DeviceRegistry
	Transmitter ports.PacketTransmitter
	StatusLog   ports.StatusLog
	Clock       domain.Clock

	Counter1 *domain.SequenceCounter // management-frame sequencing (deauth)
	Counter2 *domain.SequenceCounter // control-frame sequencing (auth/assoc/probe)

	RogueClient domain.MacAddress

	// NoTx suppresses every outbound frame and state-promoting side
	// effect; short-circuit evaluation and logging still proceed
	// (spec.md §5).
	NoTx bool

	mu      sync.RWMutex
	targets map[domain.MacAddress]struct{}
}

// NewContext builds a Context. targets may be nil/empty to mean "attack
// all observed APs".
func NewContext(registry ports.DeviceRegistry, tx ports.PacketTransmitter, log ports.StatusLog, clock domain.Clock, rogueClient domain.MacAddress, targets []domain.MacAddress, noTx bool) *Context {
	c := &Context{
		Registry:    registry,
		Transmitter: tx,
		StatusLog:   log,
		Clock:       clock,
		Counter1:    &domain.SequenceCounter{},
		Counter2:    &domain.SequenceCounter{},
		RogueClient: rogueClient,
		NoTx:        noTx,
	}
	if len(targets) > 0 {
		c.targets = make(map[domain.MacAddress]struct{}, len(targets))
		for _, t := range targets {
			c.targets[t] = struct{}{}
		}
	}
	return c
}

// IsTargeted reports whether mac should be attacked: true when the
// allow-list is empty, or mac is a member of it. Evaluated fresh on every
// call per spec.md §5 ("no persistent subscription to cancel").
func (c *Context) IsTargeted(mac domain.MacAddress) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.targets) == 0 {
		return true
	}
	_, ok := c.targets[mac]
	return ok
}

// SetTargets replaces the target allow-list.
func (c *Context) SetTargets(targets []domain.MacAddress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(targets) == 0 {
		c.targets = nil
		return
	}
	c.targets = make(map[domain.MacAddress]struct{}, len(targets))
	for _, t := range targets {
		c.targets[t] = struct{}{}
	}
}

// Log is a small convenience wrapper; nil-safe so tests may omit a log sink.
func (c *Context) Log(level ports.MessageLevel, message string) {
	if c.StatusLog != nil {
		c.StatusLog.Add(level, message)
	}
}
