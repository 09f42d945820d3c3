package controller

import (
	"fmt"
	"sync"
)

// Registry owns every live controller instance, keyed by connection
// identity. One instance is created per connection and destroyed on
// close, per the lifecycle rule that state never outlives its
// connection.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// Add registers c under its Ident, replacing (and closing) whatever
// controller previously held that identity.
func (r *Registry) Add(c *Controller) {
	r.mu.Lock()
	old := r.controllers[c.Ident]
	r.controllers[c.Ident] = c
	r.mu.Unlock()

	ident := c.Ident
	c.OnUnexpectedClose(func() {
		r.mu.Lock()
		if r.controllers[ident] == c {
			delete(r.controllers, ident)
		}
		r.mu.Unlock()
	})

	if old != nil && old != c {
		old.Close()
	}
}

// Get returns the controller for ident, or nil if none is registered.
func (r *Registry) Get(ident string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controllers[ident]
}

// Remove closes and drops the controller for ident, if present.
func (r *Registry) Remove(ident string) {
	r.mu.Lock()
	c := r.controllers[ident]
	delete(r.controllers, ident)
	r.mu.Unlock()

	if c != nil {
		c.Close()
	}
}

// List returns a snapshot of every registered controller.
func (r *Registry) List() []*Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		out = append(out, c)
	}
	return out
}

// MustGet is a convenience for handlers that have already validated the
// ident exists; it panics otherwise, since that indicates a programming
// error in the caller, not a runtime condition.
func (r *Registry) MustGet(ident string) *Controller {
	c := r.Get(ident)
	if c == nil {
		panic(fmt.Sprintf("controller: no such controller %q", ident))
	}
	return c
}
