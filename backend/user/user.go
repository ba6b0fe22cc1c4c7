// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package user implements the plain image-transfer backend.
//
// Surfaces live in allocator memory and every flush is a synchronous
// host.Display.PutImage. The backend runs on any display and is the
// fallback when no accelerated transport is available.
package user

import (
	"github.com/gogpu/ddraw/backend/internal/hostbuf"
	"github.com/gogpu/ddraw/driver"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/surface"
)

// ID is the driver id of the backend.
const ID = "user"

// Priority is the selection priority of the backend.
const Priority = 10

// Descriptor returns the driver descriptor of the backend.
func Descriptor() driver.Descriptor {
	return driver.Descriptor{
		ID:       ID,
		Name:     "plain image transfers",
		Priority: Priority,
		Factory: func(d host.Display) (surface.Backend, error) {
			return New(d), nil
		},
	}
}

// Backend creates plain storage.
type Backend struct {
	display host.Display
}

// New returns a backend for d.
func New(d host.Display) *Backend {
	return &Backend{display: d}
}

// Name returns ID.
func (b *Backend) Name() string { return ID }

// Display returns the display.
func (b *Backend) Display() host.Display { return b.display }

// NewStorage allocates plain storage.
func (b *Backend) NewStorage(req surface.StorageRequest) (surface.Storage, error) {
	return hostbuf.NewPlain(req, b.display.Pitch(req.Host, req.Width), hostbuf.PutImage(b.display))
}

// Close does nothing; plain storage holds no display resources.
func (b *Backend) Close() error { return nil }

var _ surface.Backend = (*Backend)(nil)
