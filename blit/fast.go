// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"fmt"

	"github.com/gogpu/ddraw/pixfmt"
)

// FastFlags select the BltFast variant.
type FastFlags uint32

// BltFast flags. FastNoColorKey is the zero value.
const (
	FastNoColorKey  FastFlags = 0
	FastSrcColorKey FastFlags = 1 << (iota - 1)
	FastDestColorKey
	FastWait
)

// FastExtent returns the width and height BltFast copies: the source
// rectangle clamped to what remains of both surfaces from the copy
// origin. The result is never negative.
func FastExtent(dst *View, x, y int, src *View, sr pixfmt.Rect) (w, h int) {
	w = min(sr.Width(), dst.Width-x, src.Width-sr.Left)
	h = min(sr.Height(), dst.Height-y, src.Height-sr.Top)
	return max(w, 0), max(h, 0)
}

// BltFast copies srcRect of src to (x, y) of dst without stretching. Only
// a plain copy or a single color key, taken from the source or the
// destination view, is supported.
func BltFast(dst *View, x, y int, src *View, srcRect *pixfmt.Rect, flags FastFlags) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: origin (%d,%d)", pixfmt.ErrInvalidRect, x, y)
	}
	sr, err := pixfmt.Resolve(srcRect, src.Width, src.Height)
	if err != nil {
		return err
	}
	if src.Format.BytesPerPixel() != dst.Format.BytesPerPixel() {
		return fmt.Errorf("%w: %v to %v", ErrFormatMismatch, src.Format, dst.Format)
	}

	var op copyOp
	switch flags &^ FastWait {
	case FastNoColorKey:
	case FastSrcColorKey:
		if src.SrcKey == nil {
			return fmt.Errorf("%w: source has no color key", ErrUnsupportedBltFlag)
		}
		op.srcKey = src.SrcKey
	case FastDestColorKey:
		if dst.DstKey == nil {
			return fmt.Errorf("%w: destination has no color key", ErrUnsupportedBltFlag)
		}
		op.dstKey = dst.DstKey
	default:
		return fmt.Errorf("%w: fast blit flags %#x", ErrUnsupportedBltFlag, uint32(flags))
	}

	w, h := FastExtent(dst, x, y, src, sr)
	if w == 0 || h == 0 {
		return nil
	}
	dr := pixfmt.R(x, y, x+w, y+h)
	sr = pixfmt.R(sr.Left, sr.Top, sr.Left+w, sr.Top+h)
	return op.run(dst, dr, src, sr)
}
