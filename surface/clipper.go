// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

// Clipper restricts blits to a list of rectangles or to the client area of
// a window.
type Clipper struct {
	rects    []pixfmt.Rect
	drawable host.Drawable
	refs     int
}

// NewClipper returns an empty clipper with one reference.
func NewClipper() *Clipper {
	return &Clipper{refs: 1}
}

// SetClipList replaces the clip rectangles. An empty list removes the
// restriction.
func (c *Clipper) SetClipList(rects []pixfmt.Rect) {
	c.rects = append(c.rects[:0], rects...)
}

// SetDrawable clips to the client area of d in screen coordinates. It
// takes precedence over the clip list.
func (c *Clipper) SetDrawable(d host.Drawable) {
	c.drawable = d
}

// Drawable returns the window set with SetDrawable.
func (c *Clipper) Drawable() host.Drawable {
	return c.drawable
}

// ClipList returns the current clip rectangles. A nil result means
// unrestricted.
func (c *Clipper) ClipList() []pixfmt.Rect {
	if c.drawable != nil {
		x, y := c.drawable.ClientToScreen(0, 0)
		w, h := c.drawable.Size()
		return []pixfmt.Rect{pixfmt.R(x, y, x+w, y+h)}
	}
	if len(c.rects) == 0 {
		return nil
	}
	out := make([]pixfmt.Rect, len(c.rects))
	copy(out, c.rects)
	return out
}

// Clip splits r into the parts inside the clip list.
func (c *Clipper) Clip(r pixfmt.Rect) []pixfmt.Rect {
	list := c.ClipList()
	if list == nil {
		return []pixfmt.Rect{r}
	}
	var out []pixfmt.Rect
	for _, cr := range list {
		if in := r.Intersect(cr); !in.Empty() {
			out = append(out, in)
		}
	}
	return out
}

// AddRef adds a reference.
func (c *Clipper) AddRef() { c.refs++ }

// Release drops a reference and returns the remaining count.
func (c *Clipper) Release() int {
	if c.refs > 0 {
		c.refs--
	}
	return c.refs
}
