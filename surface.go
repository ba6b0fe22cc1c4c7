// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ddraw

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/bmp"

	"github.com/gogpu/ddraw/blit"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/surface"
)

// Surface is a drawable surface created by a DirectDraw.
type Surface struct {
	dd *DirectDraw
	h  surface.Handle
}

// Handle returns the handle of s in the surface manager.
func (s *Surface) Handle() surface.Handle { return s.h }

func (s *Surface) get() (*surface.Surface, error) {
	if s.dd.closed {
		return nil, ErrClosed
	}
	return s.dd.mgr.Get(s.h)
}

// Lock returns the memory of r, or of the whole surface when r is nil.
func (s *Surface) Lock(r *pixfmt.Rect) (surface.LockedRect, error) {
	if s.dd.closed {
		return surface.LockedRect{}, ErrClosed
	}
	return s.dd.mgr.Lock(s.h, r)
}

// Unlock ends a Lock and presents a visible surface.
func (s *Surface) Unlock() error {
	if s.dd.closed {
		return ErrClosed
	}
	return s.dd.mgr.Unlock(s.h)
}

// Blt copies srcRect of src into dstRect of s, stretching when the sizes
// differ. Nil rectangles mean the whole surface; src may be nil for
// ColorFill and raster operations that ignore the source. An attached
// clipper splits the destination into visible pieces. The returned flags
// are the ones that could not be honored.
func (s *Surface) Blt(dstRect *pixfmt.Rect, src *Surface, srcRect *pixfmt.Rect, flags blit.Flags, fx *blit.FX) (blit.Flags, error) {
	ds, err := s.get()
	if err != nil {
		return flags, err
	}
	var ss *surface.Surface
	if src != nil {
		if src.dd != s.dd {
			return flags, fmt.Errorf("ddraw: blt: %w: source belongs to another DirectDraw", surface.ErrIncompatible)
		}
		if ss, err = src.get(); err != nil {
			return flags, err
		}
	}

	dr, err := bounded(dstRect, ds)
	if err != nil {
		return flags, err
	}
	var sr pixfmt.Rect
	if ss != nil {
		if sr, err = bounded(srcRect, ss); err != nil {
			return flags, err
		}
	}
	pieces := []pixfmt.Rect{dr}
	if c := ds.Clipper(); c != nil {
		pieces = c.Clip(dr)
	}
	if len(pieces) == 0 {
		return 0, nil
	}

	same := ss == ds
	area := pieces[0]
	for _, p := range pieces[1:] {
		area = union(area, p)
	}
	if same {
		area = pixfmt.Full(ds.Size())
	}
	dlr, err := s.dd.mgr.Lock(s.h, &area)
	if err != nil {
		return flags, err
	}
	dv := view(ds, dlr)
	sv := dv
	if ss != nil && !same {
		slr, err := s.dd.mgr.Lock(src.h, nil)
		if err != nil {
			return flags, errors.Join(err, s.dd.mgr.Unlock(s.h))
		}
		sv = view(ss, slr)
	} else if ss == nil {
		sv = nil
	}

	var mirrorX, mirrorY bool
	if fx != nil && flags&blit.DDFX != 0 {
		mirrorX = fx.Effects&blit.MirrorLeftRight != 0
		mirrorY = fx.Effects&blit.MirrorUpDown != 0
	}
	var rest blit.Flags
	var bltErr error
	for _, p := range pieces {
		dp := p.Offset(-area.Left, -area.Top)
		var sp *pixfmt.Rect
		if ss != nil {
			r := mapRect(p, dr, sr, mirrorX, mirrorY)
			sp = &r
		}
		r, err := blit.Blt(dv, &dp, sv, sp, flags, fx)
		if err != nil {
			rest, bltErr = flags, err
			break
		}
		rest |= r
	}

	var errs []error
	if ss != nil && !same {
		errs = append(errs, s.dd.mgr.Unlock(src.h))
	}
	errs = append(errs, s.dd.mgr.Unlock(s.h))
	if bltErr != nil {
		return rest, bltErr
	}
	return rest, errors.Join(errs...)
}

// BltFast copies srcRect of src to (x, y) of s without stretching or
// clipping. Only plain copies and a single color key are supported.
func (s *Surface) BltFast(x, y int, src *Surface, srcRect *pixfmt.Rect, flags blit.FastFlags) error {
	if src == nil {
		return fmt.Errorf("ddraw: bltfast: %w: nil source", surface.ErrIncompatible)
	}
	ds, err := s.get()
	if err != nil {
		return err
	}
	ss, err := src.get()
	if err != nil {
		return err
	}
	dlr, err := s.dd.mgr.Lock(s.h, nil)
	if err != nil {
		return err
	}
	dv := view(ds, dlr)
	sv := dv
	if ss != ds {
		slr, err := s.dd.mgr.Lock(src.h, nil)
		if err != nil {
			return errors.Join(err, s.dd.mgr.Unlock(s.h))
		}
		sv = view(ss, slr)
	}
	bltErr := blit.BltFast(dv, x, y, sv, srcRect, flags)
	var errs []error
	if ss != ds {
		errs = append(errs, s.dd.mgr.Unlock(src.h))
	}
	errs = append(errs, s.dd.mgr.Unlock(s.h))
	if bltErr != nil {
		return bltErr
	}
	return errors.Join(errs...)
}

// bounded resolves r against the size of s and checks it lies inside.
func bounded(r *pixfmt.Rect, s *surface.Surface) (pixfmt.Rect, error) {
	w, h := s.Size()
	rect, err := pixfmt.Resolve(r, w, h)
	if err != nil {
		return pixfmt.Rect{}, err
	}
	if rect.Left > rect.Right || rect.Top > rect.Bottom || !rect.In(pixfmt.Full(w, h)) {
		return pixfmt.Rect{}, fmt.Errorf("%w: %v outside %dx%d", ErrInvalidRect, rect, w, h)
	}
	return rect, nil
}

// view describes locked memory for the blit engine. Width and Height are
// those of the locked rectangle.
func view(s *surface.Surface, lr surface.LockedRect) *blit.View {
	v := &blit.View{
		Pix:    lr.Pix,
		Pitch:  lr.Pitch,
		Width:  lr.Rect.Width(),
		Height: lr.Rect.Height(),
		Format: lr.Format,
	}
	if k := s.ColorKey(surface.SrcKey); k != nil {
		v.SrcKey = &blit.Key{Low: k.Low, High: k.High}
	}
	if k := s.ColorKey(surface.DstKey); k != nil {
		v.DstKey = &blit.Key{Low: k.Low, High: k.High}
	}
	return v
}

func union(a, b pixfmt.Rect) pixfmt.Rect {
	return pixfmt.R(min(a.Left, b.Left), min(a.Top, b.Top), max(a.Right, b.Right), max(a.Bottom, b.Bottom))
}

// mapRect returns the part of sr that a clipped piece p of dr samples.
func mapRect(p, dr, sr pixfmt.Rect, mirrorX, mirrorY bool) pixfmt.Rect {
	if p == dr {
		return sr
	}
	l, r := mapSpan(p.Left, p.Right, dr.Left, dr.Right, sr.Left, sr.Right, mirrorX)
	t, b := mapSpan(p.Top, p.Bottom, dr.Top, dr.Bottom, sr.Top, sr.Bottom, mirrorY)
	return pixfmt.R(l, t, r, b)
}

// mapSpan maps [a0, a1) inside [d0, d1) onto [s0, s1).
func mapSpan(a0, a1, d0, d1, s0, s1 int, mirror bool) (int, int) {
	dw, sw := d1-d0, s1-s0
	lo := (a0 - d0) * sw / dw
	hi := (a1 - d0) * sw / dw
	if mirror {
		return s1 - hi, s1 - lo
	}
	return s0 + lo, s0 + hi
}

// Flip makes the next back buffer of the chain s heads visible, or target
// when it is not nil.
func (s *Surface) Flip(target *Surface) error {
	if s.dd.closed {
		return ErrClosed
	}
	var th surface.Handle
	if target != nil {
		th = target.h
	}
	return s.dd.mgr.Flip(s.h, th)
}

// AddAttachedSurface appends child to the flip chain of s.
func (s *Surface) AddAttachedSurface(child *Surface) error {
	if s.dd.closed {
		return ErrClosed
	}
	return s.dd.mgr.Attach(s.h, child.h)
}

// DeleteAttachedSurface removes child from the flip chain of s.
func (s *Surface) DeleteAttachedSurface(child *Surface) error {
	if s.dd.closed {
		return ErrClosed
	}
	return s.dd.mgr.Detach(s.h, child.h)
}

// AttachedSurface returns the first surface attached to s that has every
// flag of caps, e.g. surface.Back.
func (s *Surface) AttachedSurface(caps surface.Caps) (*Surface, error) {
	if s.dd.closed {
		return nil, ErrClosed
	}
	hs, err := s.dd.mgr.Attached(s.h)
	if err != nil {
		return nil, err
	}
	for _, h := range hs {
		a, err := s.dd.mgr.Get(h)
		if err == nil && a.Caps().Has(caps) {
			return &Surface{dd: s.dd, h: h}, nil
		}
	}
	return nil, fmt.Errorf("ddraw: no surface with caps %v attached to %v: %w", caps, s.h, surface.ErrNotAttached)
}

// SetPalette attaches p to s. nil detaches.
func (s *Surface) SetPalette(p *Palette) error {
	if s.dd.closed {
		return ErrClosed
	}
	return s.dd.mgr.SetPalette(s.h, p)
}

// SetClipper attaches c to s. nil detaches.
func (s *Surface) SetClipper(c *Clipper) error {
	if s.dd.closed {
		return ErrClosed
	}
	return s.dd.mgr.SetClipper(s.h, c)
}

// SetColorKey sets or, with a nil key, clears a color key.
func (s *Surface) SetColorKey(kind surface.KeyKind, key *surface.ColorKey) error {
	if s.dd.closed {
		return ErrClosed
	}
	return s.dd.mgr.SetColorKey(s.h, kind, key)
}

// Desc describes s.
func (s *Surface) Desc() (surface.Desc, error) {
	ss, err := s.get()
	if err != nil {
		return surface.Desc{}, err
	}
	return ss.Desc(), nil
}

// Image returns a copy of the pixels of s. Indexed surfaces become an
// *image.Paletted using the attached palette, or a gray ramp without one;
// other formats become an *image.NRGBA.
func (s *Surface) Image() (image.Image, error) {
	ss, err := s.get()
	if err != nil {
		return nil, err
	}
	if ss.Format().Model == pixfmt.ZBufferModel {
		return nil, fmt.Errorf("ddraw: image of %v: %w", ss.Format(), ErrUnsupportedBpp)
	}
	lr, err := s.dd.mgr.Lock(s.h, nil)
	if err != nil {
		return nil, err
	}
	img := toImage(ss, lr)
	return img, s.dd.mgr.Unlock(s.h)
}

func toImage(ss *surface.Surface, lr surface.LockedRect) image.Image {
	w, h := lr.Rect.Width(), lr.Rect.Height()
	if lr.Format.IsIndexed() {
		img := image.NewPaletted(image.Rect(0, 0, w, h), paletteOf(ss))
		for y := 0; y < h; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+w], lr.Pix[y*lr.Pitch:])
		}
		return img
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	bpp := lr.Format.BytesPerPixel()
	for y := 0; y < h; y++ {
		row := lr.Pix[y*lr.Pitch:]
		out := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			r, g, b, a := lr.Format.Unpack(pixfmt.Load(row[x*bpp:], bpp))
			out[4*x], out[4*x+1], out[4*x+2], out[4*x+3] = r, g, b, a
		}
	}
	return img
}

func paletteOf(ss *surface.Surface) color.Palette {
	pal := make(color.Palette, 256)
	if p := ss.Palette(); p != nil {
		entries, _ := p.Entries(0, p.Size())
		for i := range pal {
			pal[i] = color.RGBA{A: 0xFF}
			if i < len(entries) {
				e := entries[i]
				e.A = 0xFF
				pal[i] = e
			}
		}
		return pal
	}
	for i := range pal {
		pal[i] = color.Gray{Y: uint8(i)}
	}
	return pal
}

// SaveBMP writes the pixels of s to a BMP file.
func (s *Surface) SaveBMP(path string) error {
	img, err := s.Image()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("ddraw: encode %s: %w", path, err)
	}
	return f.Close()
}

// Release drops a reference to s and returns the remaining count. With the
// last reference the surface is destroyed.
func (s *Surface) Release() (int, error) {
	if s.dd.closed {
		return 0, ErrClosed
	}
	n, err := s.dd.mgr.Destroy(s.h)
	if err == nil && n == 0 {
		s.dd.sweepPrivate()
	}
	return n, err
}
