// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package memhost implements an in-process display.
//
// The screen is a byte slice in the display's first native format. Every
// optional host capability can be switched on through Config, which makes
// memhost the display used by tests and headless runs.
package memhost

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

// Config selects the capabilities of a Display.
type Config struct {
	Width, Height int

	// Formats are the native formats, preferred first.
	// Defaults to XRGB8888.
	Formats []pixfmt.PixelFormat

	// ScanlinePad is the row alignment in bytes. Defaults to 4.
	ScanlinePad int

	// Modes defaults to the screen size in every native format.
	Modes []host.Mode

	// Colormaps enables writable color maps.
	Colormaps bool

	// ShmMajor/ShmMinor enable the shared-memory transport when ShmMajor > 0.
	ShmMajor, ShmMinor int

	// AsyncShm holds shared-memory transfers in flight until Complete.
	AsyncShm bool

	// DirectMajor enables direct framebuffer access when > 0.
	DirectMajor int

	// Pages is the number of framebuffer pages. Defaults to 1.
	Pages int
}

// Display is an in-memory host.Display.
type Display struct {
	mu     sync.Mutex
	cfg    Config
	format pixfmt.PixelFormat
	width  int
	height int
	pitch  int
	screen []byte
	puts   int
	mode   *host.Mode

	colormaps []*Colormap
	segments  map[*Segment]bool
	pending   []chan struct{}
	fb        *Framebuffer
	closed    bool
}

// New creates a display from cfg.
func New(cfg Config) *Display {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []pixfmt.PixelFormat{pixfmt.XRGB8888}
	}
	if cfg.ScanlinePad <= 0 {
		cfg.ScanlinePad = 4
	}
	if cfg.Pages <= 0 {
		cfg.Pages = 1
	}
	d := &Display{
		cfg:      cfg,
		format:   cfg.Formats[0],
		segments: make(map[*Segment]bool),
	}
	d.resize(cfg.Width, cfg.Height)
	return d
}

func (d *Display) resize(w, h int) {
	d.width, d.height = w, h
	d.pitch = d.Pitch(d.format, w)
	d.screen = make([]byte, d.pitch*h)
}

// Name returns "mem".
func (d *Display) Name() string { return "mem" }

// Formats returns the configured native formats.
func (d *Display) Formats() []pixfmt.PixelFormat {
	out := make([]pixfmt.PixelFormat, len(d.cfg.Formats))
	copy(out, d.cfg.Formats)
	return out
}

// Size returns the screen size.
func (d *Display) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Modes returns the configured modes.
func (d *Display) Modes() []host.Mode {
	if len(d.cfg.Modes) > 0 {
		out := make([]host.Mode, len(d.cfg.Modes))
		copy(out, d.cfg.Modes)
		return out
	}
	modes := make([]host.Mode, 0, len(d.cfg.Formats))
	for _, f := range d.cfg.Formats {
		modes = append(modes, host.Mode{Width: d.cfg.Width, Height: d.cfg.Height, BitsPerPixel: f.BitsPerPixel, RefreshRate: 60})
	}
	return modes
}

// Pitch pads rows to the configured scanline alignment.
func (d *Display) Pitch(f pixfmt.PixelFormat, width int) int {
	pad := d.cfg.ScanlinePad
	return (f.RowBytes(width) + pad - 1) / pad * pad
}

// PutImage copies img into the screen. Formats must match the screen format.
func (d *Display) PutImage(img host.Image, src pixfmt.Rect, dstX, dstY int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("memhost: display closed")
	}
	if err := d.blitLocked(img, src, dstX, dstY); err != nil {
		return err
	}
	d.puts++
	return nil
}

func (d *Display) blitLocked(img host.Image, src pixfmt.Rect, dstX, dstY int) error {
	if !img.Format.MasksEqual(d.format) {
		return fmt.Errorf("memhost: image format %v does not match screen %v", img.Format, d.format)
	}
	bpp := d.format.BytesPerPixel()
	src = src.Intersect(pixfmt.Full(img.Width, img.Height))
	for y := src.Top; y < src.Bottom; y++ {
		sy := dstY + y - src.Top
		if sy < 0 || sy >= d.height {
			continue
		}
		x0, x1 := src.Left, src.Right
		dx := dstX
		if dx < 0 {
			x0 -= dx
			dx = 0
		}
		if over := dx + (x1 - x0) - d.width; over > 0 {
			x1 -= over
		}
		if x1 <= x0 {
			continue
		}
		row := img.Pix[y*img.Stride+x0*bpp : y*img.Stride+x1*bpp]
		copy(d.screen[sy*d.pitch+dx*bpp:], row)
	}
	return nil
}

// Screen returns a copy of the screen and its pitch.
func (d *Display) Screen() ([]byte, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, len(d.screen))
	copy(out, d.screen)
	return out, d.pitch
}

// Pixel returns the screen pixel at (x, y).
func (d *Display) Pixel(x, y int) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	bpp := d.format.BytesPerPixel()
	return pixfmt.Load(d.screen[y*d.pitch+x*bpp:], bpp)
}

// Puts returns the number of completed image transfers.
func (d *Display) Puts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.puts
}

// Close releases the display.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// SetMode switches the screen to m. Only modes in Modes are accepted.
func (d *Display) SetMode(m host.Mode) error {
	for _, have := range d.Modes() {
		if have.Width == m.Width && have.Height == m.Height && have.BitsPerPixel == m.BitsPerPixel {
			d.mu.Lock()
			defer d.mu.Unlock()
			mm := m
			d.mode = &mm
			d.resize(m.Width, m.Height)
			return nil
		}
	}
	return fmt.Errorf("memhost: mode %dx%dx%d: %w", m.Width, m.Height, m.BitsPerPixel, host.ErrUnsupported)
}

// RestoreMode returns to the configured screen size.
func (d *Display) RestoreMode() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = nil
	d.resize(d.cfg.Width, d.cfg.Height)
	return nil
}

// CurrentMode returns the last mode set, or nil.
func (d *Display) CurrentMode() *host.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

var (
	_ host.Display    = (*Display)(nil)
	_ host.ModeSetter = (*Display)(nil)
)

// Colormap is an in-memory color map.
type Colormap struct {
	d       *Display
	entries []color.RGBA
	stores  int
	freed   bool
}

// NewColormap creates a color map when Config.Colormaps is set.
func (d *Display) NewColormap(size int) (host.Colormap, error) {
	if !d.cfg.Colormaps {
		return nil, host.ErrUnsupported
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &Colormap{d: d, entries: make([]color.RGBA, size)}
	d.colormaps = append(d.colormaps, c)
	return c, nil
}

// Store writes entries starting at start.
func (c *Colormap) Store(start int, entries []color.RGBA) error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	if c.freed {
		return fmt.Errorf("memhost: colormap freed")
	}
	if start < 0 || start+len(entries) > len(c.entries) {
		return fmt.Errorf("memhost: colormap range %d+%d out of bounds", start, len(entries))
	}
	copy(c.entries[start:], entries)
	c.stores++
	return nil
}

// Free releases the color map.
func (c *Colormap) Free() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.freed = true
	return nil
}

// Entries returns a copy of the stored entries.
func (c *Colormap) Entries() []color.RGBA {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	out := make([]color.RGBA, len(c.entries))
	copy(out, c.entries)
	return out
}

// Freed reports whether Free was called.
func (c *Colormap) Freed() bool {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	return c.freed
}

// Colormaps returns every color map created so far.
func (d *Display) Colormaps() []*Colormap {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Colormap, len(d.colormaps))
	copy(out, d.colormaps)
	return out
}

var _ host.ColormapHost = (*Display)(nil)
