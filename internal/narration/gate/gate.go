// Package gate tracks whether the latest user interaction came from the
// keyboard. Focus changes caused by the pointer are already visible to the
// user and are not narrated when the gate is enforced.
package gate

import (
	"sync"
	"sync/atomic"

	"focusnarrator/internal/domain/dom"
)

// Gate is safe for concurrent use.
type Gate struct {
	keyboard atomic.Bool
	enforced atomic.Bool

	mu     sync.Mutex
	detach []func()
}

// New returns a gate. With enforced false, Allow always reports true.
func New(enforced bool) *Gate {
	g := &Gate{}
	g.enforced.Store(enforced)
	return g
}

// Attach installs the keydown and mousedown listeners on doc. A second
// Attach without Detach is a no-op.
func (g *Gate) Attach(doc *dom.Document) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.detach != nil {
		return
	}
	g.detach = []func(){
		doc.AddEventListener(dom.EventKeyDown, func(ev dom.Event) { g.KeyDown(ev.Key) }),
		doc.AddEventListener(dom.EventMouseDown, func(dom.Event) { g.MouseDown() }),
	}
}

// Detach removes the listeners installed by Attach.
func (g *Gate) Detach() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, remove := range g.detach {
		remove()
	}
	g.detach = nil
}

// KeyDown records a key press. Only Tab changes the gate; Escape and every
// other key are left to their own handlers.
func (g *Gate) KeyDown(key string) {
	if key == "Tab" {
		g.keyboard.Store(true)
	}
}

// MouseDown records a pointer press.
func (g *Gate) MouseDown() {
	g.keyboard.Store(false)
}

// LastWasKeyboard reports whether Tab was pressed more recently than the
// pointer.
func (g *Gate) LastWasKeyboard() bool {
	return g.keyboard.Load()
}

// Enforced reports whether Allow consults the interaction flag.
func (g *Gate) Enforced() bool {
	return g.enforced.Load()
}

// SetEnforced switches gating on or off.
func (g *Gate) SetEnforced(enforced bool) {
	g.enforced.Store(enforced)
}

// Allow reports whether a focus event should be narrated now.
func (g *Gate) Allow() bool {
	return !g.enforced.Load() || g.keyboard.Load()
}
