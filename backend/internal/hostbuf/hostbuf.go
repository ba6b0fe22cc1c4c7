// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package hostbuf holds the flush path shared by the display backends:
// allocator-backed pixel buffers and the copy or conversion of a dirty
// rectangle into host-format memory.
package hostbuf

import (
	"fmt"

	"github.com/gogpu/ddraw/convert"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/surface"
)

// Buffer is allocator-backed pixel memory.
type Buffer struct {
	Pix   []byte
	Pitch int
	alloc surface.Allocator
}

// Alloc returns a cleared buffer of height rows of pitch bytes.
func Alloc(a surface.Allocator, pitch, height int) (*Buffer, error) {
	pix, err := a.Alloc(pitch*height, true)
	if err != nil {
		return nil, err
	}
	return &Buffer{Pix: pix, Pitch: pitch, alloc: a}, nil
}

// Free returns the memory to the allocator.
func (b *Buffer) Free() {
	if b == nil || b.Pix == nil {
		return
	}
	b.alloc.Free(b.Pix)
	b.Pix = nil
}

// Convert brings the r part of src, in format f, into dst in host format
// at the same position. Without a converter the rows are copied.
func Convert(dst []byte, dstPitch int, src []byte, srcPitch int, f pixfmt.PixelFormat, hostFormat pixfmt.PixelFormat, r pixfmt.Rect, conv *convert.Entry, lut []uint32) error {
	if r.Empty() {
		return nil
	}
	sb, db := f.BytesPerPixel(), hostFormat.BytesPerPixel()
	soff := r.Top*srcPitch + r.Left*sb
	doff := r.Top*dstPitch + r.Left*db
	w, h := r.Width(), r.Height()
	if conv == nil {
		if sb != db {
			return fmt.Errorf("hostbuf: %v cannot be copied to %v", f, hostFormat)
		}
		n := w * sb
		for y := 0; y < h; y++ {
			copy(dst[doff+y*dstPitch:doff+y*dstPitch+n], src[soff+y*srcPitch:soff+y*srcPitch+n])
		}
		return nil
	}
	return conv.Pixel(dst[doff:], dstPitch, src[soff:], srcPitch, w, h, lut)
}

// PresentFunc hands the r part of a host-format image to the display.
type PresentFunc func(img host.Image, r pixfmt.Rect) error

// PutImage returns a PresentFunc calling d.PutImage at the rectangle's own
// position.
func PutImage(d host.Display) PresentFunc {
	return func(img host.Image, r pixfmt.Rect) error {
		return d.PutImage(img, r, r.Left, r.Top)
	}
}

// Plain is surface storage in allocator memory. When the surface emulates
// a depth, a host-format shadow is refreshed on every flush.
type Plain struct {
	req     surface.StorageRequest
	buf     *Buffer
	shadow  *Buffer
	present PresentFunc
}

// NewPlain allocates plain storage. hostPitch is the row size the display
// wants for host-format images; visible surfaces that need no conversion
// use it directly.
func NewPlain(req surface.StorageRequest, hostPitch int, present PresentFunc) (*Plain, error) {
	p := &Plain{req: req, present: present}
	pitch := req.Format.RowBytes(req.Width)
	if req.Converter == nil && req.Caps&surface.Primary != 0 && hostPitch > pitch {
		pitch = hostPitch
	}
	buf, err := Alloc(req.Allocator, pitch, req.Height)
	if err != nil {
		return nil, err
	}
	p.buf = buf
	if req.Converter != nil {
		shadow, err := Alloc(req.Allocator, hostPitch, req.Height)
		if err != nil {
			buf.Free()
			return nil, err
		}
		p.shadow = shadow
	}
	return p, nil
}

// Pix returns the surface pixels.
func (p *Plain) Pix() []byte { return p.buf.Pix }

// Pitch returns the surface row size.
func (p *Plain) Pitch() int { return p.buf.Pitch }

// Shadow returns the host-format shadow, or nil.
func (p *Plain) Shadow() *Buffer { return p.shadow }

// Flush converts r into the shadow when emulating and presents it.
func (p *Plain) Flush(r pixfmt.Rect, lut []uint32) error {
	img := host.Image{
		Pix:    p.buf.Pix,
		Stride: p.buf.Pitch,
		Width:  p.req.Width,
		Height: p.req.Height,
		Format: p.req.Host,
	}
	if p.shadow != nil {
		if err := Convert(p.shadow.Pix, p.shadow.Pitch, p.buf.Pix, p.buf.Pitch,
			p.req.Format, p.req.Host, r, p.req.Converter, lut); err != nil {
			return err
		}
		img.Pix, img.Stride = p.shadow.Pix, p.shadow.Pitch
	}
	return p.present(img, r)
}

// Wait returns at once; plain transfers are synchronous.
func (p *Plain) Wait() {}

// Release frees both buffers.
func (p *Plain) Release() error {
	p.buf.Free()
	p.shadow.Free()
	return nil
}

var _ surface.Storage = (*Plain)(nil)
