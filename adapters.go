// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ddraw

import (
	"errors"
	"fmt"

	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/surface"
)

// ErrNoPrivateData is returned by Surface4 for an unknown key.
var ErrNoPrivateData = errors.New("ddraw: no private data for key")

// DirectDraw2 adds video memory queries and refresh rates to DirectDraw.
type DirectDraw2 struct {
	*DirectDraw
}

// DirectDraw2 returns the version 2 view of dd.
func (dd *DirectDraw) DirectDraw2() *DirectDraw2 {
	return &DirectDraw2{dd}
}

// AvailableVidMem returns the display memory of the backend. Backends
// without display memory report zero.
func (dd *DirectDraw2) AvailableVidMem() (total, free int, err error) {
	if dd.closed {
		return 0, 0, ErrClosed
	}
	total, free = dd.videoMemory()
	return total, free, nil
}

// SetDisplayMode switches the display mode and asks for a refresh rate.
// A rate of 0 keeps the display's choice.
func (dd *DirectDraw2) SetDisplayMode(width, height, bpp, refreshRate int) error {
	return dd.setDisplayMode(width, height, bpp, refreshRate)
}

// DirectDraw4 adds surface enumeration to DirectDraw2.
type DirectDraw4 struct {
	*DirectDraw2
}

// DirectDraw4 returns the version 4 view of dd.
func (dd *DirectDraw) DirectDraw4() *DirectDraw4 {
	return &DirectDraw4{dd.DirectDraw2()}
}

// EnumSurfaces calls fn for every live surface, in creation order, whose
// description satisfies match. A nil match selects all. Enumeration stops
// when fn returns false.
func (dd *DirectDraw4) EnumSurfaces(match func(surface.Desc) bool, fn func(*Surface, surface.Desc) bool) {
	if dd.closed {
		return
	}
	dd.mgr.Each(func(s *surface.Surface) bool {
		desc := s.Desc()
		if match != nil && !match(desc) {
			return true
		}
		return fn(&Surface{dd: dd.DirectDraw, h: s.Handle()}, desc)
	})
}

// Surface3 adds client memory to Surface.
type Surface3 struct {
	*Surface
}

// Surface3 returns the version 3 view of s.
func (s *Surface) Surface3() *Surface3 {
	return &Surface3{s}
}

// MemoryDesc describes client memory handed to SetSurfaceDesc. A zero
// Format keeps the surface format.
type MemoryDesc struct {
	Width, Height int
	Pitch         int
	Format        pixfmt.PixelFormat
	Pix           []byte
}

// SetSurfaceDesc makes the surface use client memory. The caller keeps
// ownership of desc.Pix and must keep it alive while the surface uses it.
// Only offscreen surfaces outside a flip chain can do this.
func (s *Surface3) SetSurfaceDesc(desc MemoryDesc) error {
	if s.dd.closed {
		return ErrClosed
	}
	return s.dd.mgr.SetMemory(s.h, desc.Pix, desc.Pitch, desc.Width, desc.Height, desc.Format)
}

// Surface4 adds application data attached to a surface.
type Surface4 struct {
	*Surface3
}

// Surface4 returns the version 4 view of s.
func (s *Surface) Surface4() *Surface4 {
	return &Surface4{s.Surface3()}
}

// SetPrivateData stores data under key. It is dropped with the surface.
func (s *Surface4) SetPrivateData(key, data any) error {
	if _, err := s.get(); err != nil {
		return err
	}
	m := s.dd.private[s.h]
	if m == nil {
		m = make(map[any]any)
		s.dd.private[s.h] = m
	}
	m[key] = data
	return nil
}

// PrivateData returns the data stored under key.
func (s *Surface4) PrivateData(key any) (any, error) {
	if _, err := s.get(); err != nil {
		return nil, err
	}
	data, ok := s.dd.private[s.h][key]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoPrivateData, key)
	}
	return data, nil
}

// FreePrivateData removes the data stored under key.
func (s *Surface4) FreePrivateData(key any) error {
	if _, err := s.get(); err != nil {
		return err
	}
	m := s.dd.private[s.h]
	if _, ok := m[key]; !ok {
		return fmt.Errorf("%w: %v", ErrNoPrivateData, key)
	}
	delete(m, key)
	if len(m) == 0 {
		delete(s.dd.private, s.h)
	}
	return nil
}

// sweepPrivate drops the data of destroyed surfaces, including chain
// members destroyed with their owner.
func (dd *DirectDraw) sweepPrivate() {
	for h := range dd.private {
		if _, err := dd.mgr.Get(h); err != nil {
			delete(dd.private, h)
		}
	}
}
