// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package driver selects the display backend.
//
// Each backend registers a Descriptor once. Resolution without an id scans
// descriptors by descending priority, ties in registration order, and
// activates the first whose probe passes:
//
//	b, err := driver.Default.Resolve(display, "")
//	// or a specific backend:
//	b, err := driver.Default.Resolve(display, "xshm")
//
// Backends claim exclusive low-level access to the display, so only one may
// be active per registry at a time. Closing the returned backend releases
// the claim.
package driver

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/surface"
)

// Descriptor describes a backend.
type Descriptor struct {
	// ID is the unique identifier, e.g. "xshm".
	ID string

	// Name is a human-readable description.
	Name string

	// Priority determines selection order (higher = preferred).
	// Built-in priorities:
	//   - 40: shared-memory image transport
	//   - 30: direct framebuffer access with page flipping
	//   - 20: direct framebuffer access
	//   - 10: plain image transfers
	Priority int

	// Probe reports whether the backend can run on the display. Nil means
	// always.
	Probe func(d host.Display) bool

	// Factory creates the backend.
	Factory func(d host.Display) (surface.Backend, error)

	// SetMode switches the display mode. Nil uses host.ModeSetter.
	SetMode func(d host.Display, m host.Mode) error
}

// Errors.
var (
	// ErrBackendUnavailable is returned when no backend can run, or the
	// requested one fails its probe.
	ErrBackendUnavailable = errors.New("driver: backend unavailable")

	// ErrBackendBusy is returned when a backend is already active.
	ErrBackendBusy = errors.New("driver: a backend is already active")

	// ErrDuplicateID is returned when an id is registered twice.
	ErrDuplicateID = errors.New("driver: duplicate backend id")
)

// NotFoundError indicates a requested backend is not registered.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "driver: backend not found: " + e.ID
}

// UnavailableError indicates a backend exists but cannot run on the
// display. It matches ErrBackendUnavailable with errors.Is.
type UnavailableError struct {
	ID     string
	Reason error
}

func (e *UnavailableError) Error() string {
	id := e.ID
	if id == "" {
		id = "(any)"
	}
	if e.Reason != nil {
		return fmt.Sprintf("driver: backend unavailable: %s: %v", id, e.Reason)
	}
	return "driver: backend unavailable: " + id
}

func (e *UnavailableError) Unwrap() []error {
	if e.Reason != nil {
		return []error{ErrBackendUnavailable, e.Reason}
	}
	return []error{ErrBackendUnavailable}
}

type entry struct {
	desc Descriptor
	seq  int
}

// Registry holds backend descriptors.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seq     int
	active  string
}

// NewRegistry creates an empty registry.
// Most code should use Default.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Register adds a descriptor. The registry keeps its own copy.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" || d.Factory == nil {
		return fmt.Errorf("driver: descriptor %q needs an id and a factory", d.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*entry)
	}
	if _, ok := r.entries[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
	}
	if d.Probe == nil {
		d.Probe = func(host.Display) bool { return true }
	}
	r.seq++
	r.entries[d.ID] = &entry{desc: d, seq: r.seq}
	return nil
}

// Unregister removes a descriptor.
// This is useful for testing.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
}

// Get returns a copy of a descriptor.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

// List returns all registered ids in selection order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := r.sorted()
	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.desc.ID
	}
	return ids
}

// Available returns the ids whose probe passes on d, in selection order.
func (r *Registry) Available(d host.Display) []string {
	r.mu.RLock()
	sorted := r.sorted()
	r.mu.RUnlock()

	var ids []string
	for _, e := range sorted {
		if e.desc.Probe(d) {
			ids = append(ids, e.desc.ID)
		}
	}
	return ids
}

// Active returns the id of the active backend, or "".
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Resolve activates a backend on d. With an empty id the highest-priority
// backend whose probe passes and whose factory succeeds is used. A
// requested id must pass its probe.
func (r *Registry) Resolve(d host.Display, id string) (surface.Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return nil, fmt.Errorf("%w: %s", ErrBackendBusy, r.active)
	}

	if id != "" {
		e, ok := r.entries[id]
		if !ok {
			return nil, &NotFoundError{ID: id}
		}
		if !e.desc.Probe(d) {
			return nil, &UnavailableError{ID: id}
		}
		b, err := e.desc.Factory(d)
		if err != nil {
			return nil, &UnavailableError{ID: id, Reason: err}
		}
		return r.activate(e.desc.ID, b), nil
	}

	var lastErr error
	for _, e := range r.sorted() {
		if !e.desc.Probe(d) {
			dlog.Logger().Debug("driver: probe failed", "id", e.desc.ID)
			continue
		}
		b, err := e.desc.Factory(d)
		if err != nil {
			dlog.Logger().Debug("driver: factory failed", "id", e.desc.ID, "err", err)
			lastErr = err
			continue
		}
		return r.activate(e.desc.ID, b), nil
	}
	return nil, &UnavailableError{Reason: lastErr}
}

// activate must be called with the lock held.
func (r *Registry) activate(id string, b surface.Backend) surface.Backend {
	r.active = id
	dlog.Logger().Info("driver: backend selected", "id", id)
	return &claim{Backend: b, r: r, id: id}
}

func (r *Registry) releaseClaim(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == id {
		r.active = ""
	}
}

// sorted returns entries by priority, highest first, then registration
// order. Must be called with lock held.
func (r *Registry) sorted() []*entry {
	out := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].desc.Priority != out[j].desc.Priority {
			return out[i].desc.Priority > out[j].desc.Priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// claim is an active backend. Close releases the registry claim.
type claim struct {
	surface.Backend
	r    *Registry
	id   string
	once sync.Once
}

func (c *claim) Close() error {
	err := c.Backend.Close()
	c.once.Do(func() { c.r.releaseClaim(c.id) })
	return err
}

// Flip forwards to the backend when it exchanges resources on flip.
func (c *claim) Flip(front, back surface.Storage) error {
	if f, ok := c.Backend.(surface.Flipper); ok {
		return f.Flip(front, back)
	}
	return nil
}

// VideoMemory forwards to the backend when it has display memory.
func (c *claim) VideoMemory() (total, free int) {
	if mr, ok := c.Backend.(surface.MemoryReporter); ok {
		return mr.VideoMemory()
	}
	return 0, 0
}

// Unwrap returns the backend behind the claim.
func (c *claim) Unwrap() surface.Backend {
	return c.Backend
}
