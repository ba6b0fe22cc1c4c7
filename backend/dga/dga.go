// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package dga implements the direct framebuffer access backends.
//
// Two descriptors share one implementation. "dga" maps the framebuffer and
// copies visible surfaces into the scanned-out page on every flush. "dga2"
// needs version 2 of the direct-access extension: members of the primary
// flip chain are carved out of the framebuffer as whole pages, so drawing
// goes straight to display memory and a flip only moves the viewport.
// Surfaces that do not fit that scheme (offscreen surfaces, emulated
// depths, chains longer than the page count) fall back to the copying
// path.
package dga

import (
	"fmt"

	"github.com/gogpu/ddraw/backend/internal/hostbuf"
	"github.com/gogpu/ddraw/driver"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/probe"
	"github.com/gogpu/ddraw/surface"
)

// Driver ids and priorities.
const (
	ID        = "dga"
	ID2       = "dga2"
	Priority  = 20
	Priority2 = 30
)

// Descriptor returns the descriptor of the basic backend. It probes with
// p, or probe.Default when p is nil.
func Descriptor(p *probe.Prober) driver.Descriptor {
	if p == nil {
		p = probe.Default()
	}
	return driver.Descriptor{
		ID:       ID,
		Name:     "direct framebuffer access",
		Priority: Priority,
		Probe: func(d host.Display) bool {
			return p.Family(d, probe.FamilyDirect) >= probe.Direct
		},
		Factory: func(d host.Display) (surface.Backend, error) {
			return New(d, false)
		},
	}
}

// Descriptor2 returns the descriptor of the page-flipping backend.
func Descriptor2(p *probe.Prober) driver.Descriptor {
	if p == nil {
		p = probe.Default()
	}
	return driver.Descriptor{
		ID:       ID2,
		Name:     "direct framebuffer access with page flipping",
		Priority: Priority2,
		Probe: func(d host.Display) bool {
			return p.Family(d, probe.FamilyDirect) == probe.Direct2
		},
		Factory: func(d host.Display) (surface.Backend, error) {
			return New(d, true)
		},
	}
}

// Backend owns the framebuffer mapping.
type Backend struct {
	display  host.Display
	fb       host.Framebuffer
	paged    bool
	pageSize int
	used     []bool
	view     int
}

// New maps the framebuffer of d. With paged set, primary chain members
// are placed in framebuffer pages.
func New(d host.Display, paged bool) (*Backend, error) {
	dh, ok := d.(host.DirectHost)
	if !ok {
		return nil, fmt.Errorf("dga: %s: %w", d.Name(), host.ErrUnsupported)
	}
	fb, err := dh.MapFramebuffer()
	if err != nil {
		return nil, fmt.Errorf("dga: map framebuffer: %w", err)
	}
	_, h := fb.Size()
	b := &Backend{
		display:  d,
		fb:       fb,
		paged:    paged,
		pageSize: fb.Pitch() * h,
		used:     make([]bool, fb.Pages()),
	}
	dlog.Logger().Debug("dga: framebuffer mapped", "pages", fb.Pages(), "pitch", fb.Pitch(), "paged", paged)
	return b, nil
}

// Name returns the driver id.
func (b *Backend) Name() string {
	if b.paged {
		return ID2
	}
	return ID
}

// Display returns the display.
func (b *Backend) Display() host.Display { return b.display }

// Framebuffer returns the mapping.
func (b *Backend) Framebuffer() host.Framebuffer { return b.fb }

// NewStorage places primary chain members in framebuffer pages when
// possible and everything else in plain memory.
func (b *Backend) NewStorage(req surface.StorageRequest) (surface.Storage, error) {
	if st := b.pageStorage(req); st != nil {
		return st, nil
	}
	return hostbuf.NewPlain(req, b.fb.Pitch(), b.present)
}

func (b *Backend) pageStorage(req surface.StorageRequest) *page {
	if !b.paged || req.Caps&surface.Primary == 0 || req.Converter != nil {
		return nil
	}
	w, h := b.fb.Size()
	if req.Width != w || req.Height != h || !req.Format.MasksEqual(b.fb.Format()) {
		return nil
	}
	if req.Page < 0 || req.Page >= len(b.used) || b.used[req.Page] {
		return nil
	}
	b.used[req.Page] = true
	off := req.Page * b.pageSize
	pix := b.fb.Pix()[off : off+b.pageSize]
	clear(pix)
	return &page{b: b, index: req.Page, pix: pix}
}

// present copies the r part of a host-format image into the page being
// scanned out.
func (b *Backend) present(img host.Image, r pixfmt.Rect) error {
	if !img.Format.MasksEqual(b.fb.Format()) {
		return fmt.Errorf("dga: image format %v does not match framebuffer %v", img.Format, b.fb.Format())
	}
	w, h := b.fb.Size()
	r = r.Intersect(pixfmt.Full(w, h)).Intersect(pixfmt.Full(img.Width, img.Height))
	if r.Empty() {
		return nil
	}
	bpp := img.Format.BytesPerPixel()
	pitch := b.fb.Pitch()
	dst := b.fb.Pix()[b.view*b.pageSize:]
	n := r.Width() * bpp
	for y := r.Top; y < r.Bottom; y++ {
		so := y*img.Stride + r.Left*bpp
		do := y*pitch + r.Left*bpp
		copy(dst[do:do+n], img.Pix[so:so+n])
	}
	return nil
}

// Flip scans out the page of the new front member.
func (b *Backend) Flip(front, _ surface.Storage) error {
	p, ok := front.(*page)
	if !ok {
		return nil
	}
	if err := b.fb.SetViewport(p.index); err != nil {
		return fmt.Errorf("dga: set viewport: %w", err)
	}
	b.view = p.index
	return nil
}

// VideoMemory reports the framebuffer size and the bytes in unused pages.
func (b *Backend) VideoMemory() (total, free int) {
	total = len(b.fb.Pix())
	for _, u := range b.used {
		if !u {
			free += b.pageSize
		}
	}
	return total, free
}

// Close unmaps the framebuffer.
func (b *Backend) Close() error {
	if err := b.fb.Unmap(); err != nil {
		return fmt.Errorf("dga: unmap framebuffer: %w", err)
	}
	return nil
}

// page is a framebuffer page holding one primary chain member.
type page struct {
	b     *Backend
	index int
	pix   []byte
}

func (p *page) Pix() []byte { return p.pix }
func (p *page) Pitch() int  { return p.b.fb.Pitch() }

// Flush does nothing: the pixels already are in display memory.
func (p *page) Flush(pixfmt.Rect, []uint32) error { return nil }

func (p *page) Wait() {}

func (p *page) Release() error {
	p.b.used[p.index] = false
	return nil
}

var (
	_ surface.Backend        = (*Backend)(nil)
	_ surface.Flipper        = (*Backend)(nil)
	_ surface.MemoryReporter = (*Backend)(nil)
	_ surface.Storage        = (*page)(nil)
)
