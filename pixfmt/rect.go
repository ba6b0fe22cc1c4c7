// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pixfmt

import "fmt"

// Rect is a half-open pixel rectangle: Left and Top are inclusive, Right and
// Bottom exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// R is shorthand for Rect{l, t, r, b}.
func R(l, t, r, b int) Rect {
	return Rect{Left: l, Top: t, Right: r, Bottom: b}
}

// Full returns the rectangle covering a w×h surface.
func Full(w, h int) Rect {
	return Rect{Right: w, Bottom: h}
}

// Width returns Right-Left.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom-Top.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// Negative reports whether any coordinate is below zero.
func (r Rect) Negative() bool {
	return r.Left < 0 || r.Top < 0 || r.Right < 0 || r.Bottom < 0
}

// Intersect returns the largest rectangle contained in both r and o.
// The result is the zero Rect when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	if r.Left < o.Left {
		r.Left = o.Left
	}
	if r.Top < o.Top {
		r.Top = o.Top
	}
	if r.Right > o.Right {
		r.Right = o.Right
	}
	if r.Bottom > o.Bottom {
		r.Bottom = o.Bottom
	}
	if r.Empty() {
		return Rect{}
	}
	return r
}

// In reports whether r lies completely inside o.
func (r Rect) In(o Rect) bool {
	return r.Left >= o.Left && r.Top >= o.Top && r.Right <= o.Right && r.Bottom <= o.Bottom
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Overlaps reports whether r and o share at least one pixel.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// String returns "(l,t)-(r,b)".
func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Resolve returns *r, or the full w×h rectangle when r is nil. A rectangle
// with a negative coordinate fails with ErrInvalidRect.
func Resolve(r *Rect, w, h int) (Rect, error) {
	if r == nil {
		return Full(w, h), nil
	}
	if r.Negative() {
		return Rect{}, fmt.Errorf("%w: %v", ErrInvalidRect, *r)
	}
	return *r, nil
}
