// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ddraw

import (
	"github.com/gogpu/ddraw/driver"
	"github.com/gogpu/ddraw/surface"
)

// Option configures a DirectDraw during Open.
// Options are applied after the environment is read, so they win over it.
//
// Example:
//
//	// Best available backend
//	dd, err := ddraw.Open(disp)
//
//	// Force plain image transfers, native depths only
//	dd, err := ddraw.Open(disp,
//	    ddraw.WithDriver("user"),
//	    ddraw.WithConfig(ddraw.Config{NoEmulation: true}),
//	)
type Option func(*options)

// options holds optional configuration for Open.
type options struct {
	cfg      Config
	driver   *string
	registry *driver.Registry
	alloc    surface.Allocator
	noEnv    bool
}

// WithDriver selects the backend by id, overriding DDRAW_DRIVER.
// An empty id selects the best available backend.
func WithDriver(id string) Option {
	return func(o *options) {
		o.driver = &id
	}
}

// WithRegistry resolves the backend in r instead of driver.Default. The
// built-in backends are not added to r; use RegisterBuiltins for that.
//
// Example:
//
//	r := driver.NewRegistry()
//	_ = r.Register(myBackend)
//	dd, err := ddraw.Open(disp, ddraw.WithRegistry(r))
func WithRegistry(r *driver.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithAllocator sets the allocator surface storage is taken from.
func WithAllocator(a surface.Allocator) Option {
	return func(o *options) {
		o.alloc = a
	}
}

// WithConfig uses cfg instead of the environment.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
		o.noEnv = true
	}
}
