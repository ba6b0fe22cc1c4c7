// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package host defines the boundary between the surface engine and the
// display server it draws to.
//
// Every backend talks to the display through a Display. Optional
// capabilities (colormaps, shared-memory transport, direct framebuffer
// access, mode switching) are discovered with type assertions:
//
//	if sh, ok := d.(host.ShmHost); ok {
//		major, minor, ok := sh.ShmVersion()
//		...
//	}
//
// Implementations live in subpackages: memhost (in-process, used by tests
// and headless runs), x11host, ebitenhost and gpuhost.
package host

import (
	"errors"
	"image/color"

	"github.com/gogpu/ddraw/pixfmt"
)

// ErrUnsupported is returned by a host that lacks a requested capability.
var ErrUnsupported = errors.New("host: operation not supported")

// Image is a rectangle of pixels in a host format.
type Image struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
	Format pixfmt.PixelFormat
}

// Mode is a display mode the host can switch to.
type Mode struct {
	Width        int
	Height       int
	BitsPerPixel int
	RefreshRate  int
}

// Display is a connection to a display server.
type Display interface {
	// Name identifies the display, e.g. ":0" or "mem".
	Name() string

	// Formats lists the pixel formats the display accepts natively,
	// preferred format first.
	Formats() []pixfmt.PixelFormat

	// Size returns the current screen size.
	Size() (width, height int)

	// Modes lists the display modes, current mode first.
	Modes() []Mode

	// Pitch returns the row size the display requires for images of the
	// given format and width. It is at least f.RowBytes(width).
	Pitch(f pixfmt.PixelFormat, width int) int

	// PutImage transfers the src part of img to the screen at (dstX, dstY)
	// and returns once the host has consumed img.
	PutImage(img Image, src pixfmt.Rect, dstX, dstY int) error

	// Close releases the connection.
	Close() error
}

// Colormap is a host color map for indexed visuals.
type Colormap interface {
	// Store writes entries starting at index start.
	Store(start int, entries []color.RGBA) error

	// Free releases the color map.
	Free() error
}

// ColormapHost is implemented by displays with writable color maps.
type ColormapHost interface {
	NewColormap(size int) (Colormap, error)
}

// Segment is a shared-memory region both sides can address.
type Segment interface {
	// Bytes returns the segment memory.
	Bytes() []byte

	// PutImage starts an asynchronous transfer of the src part of img to
	// the screen. img.Pix must be Bytes(). The returned channel is closed
	// when the host has finished reading the segment.
	PutImage(img Image, src pixfmt.Rect, dstX, dstY int) (<-chan struct{}, error)

	// Release detaches the segment from both sides and removes it.
	Release() error
}

// ShmHost is implemented by displays with a shared-memory image transport.
type ShmHost interface {
	// ShmVersion reports the transport version, ok is false when the
	// transport is missing or unusable.
	ShmVersion() (major, minor int, ok bool)

	// NewSegment creates and attaches a segment of at least size bytes.
	NewSegment(size int) (Segment, error)
}

// Framebuffer is the mapped display memory of a direct-access host.
type Framebuffer interface {
	Pix() []byte
	Pitch() int
	Format() pixfmt.PixelFormat

	// Size returns the visible size of one page.
	Size() (width, height int)

	// Pages is the number of full-screen pages the memory holds.
	Pages() int

	// SetViewport scans out the given page.
	SetViewport(page int) error

	// Unmap releases the mapping.
	Unmap() error
}

// DirectHost is implemented by displays that expose their framebuffer.
type DirectHost interface {
	// DirectVersion reports the direct-access extension version, ok is
	// false when it is missing or unusable.
	DirectVersion() (major, minor int, ok bool)

	MapFramebuffer() (Framebuffer, error)
}

// ModeSetter is implemented by displays that can change their mode.
type ModeSetter interface {
	SetMode(m Mode) error
	RestoreMode() error
}

// Drawable is a native window supplied by the windowing layer.
type Drawable interface {
	// ID is the native drawable handle.
	ID() uint32

	// ClientToScreen maps window coordinates to screen coordinates.
	ClientToScreen(x, y int) (int, int)

	// Size returns the client area size.
	Size() (width, height int)
}
