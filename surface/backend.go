// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"github.com/gogpu/ddraw/convert"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

// StorageRequest describes the pixel storage of one surface.
type StorageRequest struct {
	Width, Height int

	// Format is the format the application sees.
	Format pixfmt.PixelFormat

	// Host is the format the display accepts. It equals Format unless
	// Converter is set.
	Host pixfmt.PixelFormat

	// Converter is the depth-emulation entry for visible surfaces.
	Converter *convert.Entry

	Caps Caps

	// Page is the position of the surface in its flip chain, 0 for the
	// first member and for unchained surfaces.
	Page int

	// Allocator supplies plain memory.
	Allocator Allocator
}

// Storage is the pixel memory of a surface, owned by a backend.
type Storage interface {
	// Pix returns the pixels in the surface format.
	Pix() []byte

	// Pitch returns the row size of Pix in bytes.
	Pitch() int

	// Flush makes the r part of the surface visible on the display. lut is
	// the host-format palette for indexed emulation.
	Flush(r pixfmt.Rect, lut []uint32) error

	// Wait blocks until no transfer to the display reads the storage.
	Wait()

	// Release frees the storage. It is called once, after the surface has
	// left its flip chain.
	Release() error
}

// Backend creates storage for one display.
type Backend interface {
	// Name is the driver id of the backend.
	Name() string

	Display() host.Display

	NewStorage(req StorageRequest) (Storage, error)

	// Close releases display-side resources of the backend.
	Close() error
}

// Flipper is implemented by backends that exchange display-side resources
// on flip, such as the scanned-out framebuffer page.
type Flipper interface {
	Flip(front, back Storage) error
}

// MemoryReporter is implemented by backends with dedicated display memory.
type MemoryReporter interface {
	VideoMemory() (total, free int)
}
