// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package memhost

import (
	"fmt"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

// Framebuffer is mapped display memory holding Config.Pages pages.
type Framebuffer struct {
	d        *Display
	mem      []byte
	pitch    int
	format   pixfmt.PixelFormat
	w, h     int
	pages    int
	viewport int
	unmapped bool
}

// DirectVersion reports the configured direct-access version.
func (d *Display) DirectVersion() (int, int, bool) {
	return d.cfg.DirectMajor, 0, d.cfg.DirectMajor > 0
}

// MapFramebuffer maps the screen memory. Only one mapping may exist.
func (d *Display) MapFramebuffer() (host.Framebuffer, error) {
	if d.cfg.DirectMajor <= 0 {
		return nil, host.ErrUnsupported
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fb != nil && !d.fb.unmapped {
		return nil, fmt.Errorf("memhost: framebuffer already mapped")
	}
	pages := d.cfg.Pages
	if d.cfg.DirectMajor < 2 {
		pages = 1
	}
	d.fb = &Framebuffer{
		d:      d,
		mem:    make([]byte, d.pitch*d.height*pages),
		pitch:  d.pitch,
		format: d.format,
		w:      d.width,
		h:      d.height,
		pages:  pages,
	}
	return d.fb, nil
}

// Pix returns the mapped memory of all pages.
func (f *Framebuffer) Pix() []byte { return f.mem }

// Pitch returns the row size.
func (f *Framebuffer) Pitch() int { return f.pitch }

// Format returns the screen format.
func (f *Framebuffer) Format() pixfmt.PixelFormat { return f.format }

// Size returns the page size.
func (f *Framebuffer) Size() (int, int) { return f.w, f.h }

// Pages returns the number of pages.
func (f *Framebuffer) Pages() int { return f.pages }

// SetViewport selects the scanned-out page.
func (f *Framebuffer) SetViewport(page int) error {
	if page < 0 || page >= f.pages {
		return fmt.Errorf("memhost: viewport page %d out of range", page)
	}
	f.d.mu.Lock()
	f.viewport = page
	f.d.mu.Unlock()
	return nil
}

// Viewport returns the scanned-out page.
func (f *Framebuffer) Viewport() int {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	return f.viewport
}

// Unmap releases the mapping.
func (f *Framebuffer) Unmap() error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if f.unmapped {
		return fmt.Errorf("memhost: framebuffer not mapped")
	}
	f.unmapped = true
	return nil
}

// Mapped returns the current framebuffer mapping, or nil.
func (d *Display) Mapped() *Framebuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fb == nil || d.fb.unmapped {
		return nil
	}
	return d.fb
}

var _ host.DirectHost = (*Display)(nil)
