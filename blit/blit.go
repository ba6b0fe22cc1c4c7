// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package blit copies, stretches, color-keys and fills pixel rectangles
// between locked surfaces.
//
// The engine works on Views, plain descriptions of locked memory, and
// never looks at the backend that owns it. Loops are specialized per pixel
// byte width: 1, 2 and 4 bytes each have their own loop, 3-byte pixels are
// unpacked and packed explicitly.
//
// Blt is tolerant of flags it cannot honor: everything it can do is done,
// the unhandled flags are logged and returned, and the call succeeds.
package blit

import (
	"errors"
	"fmt"

	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/pixfmt"
)

// Errors.
var (
	// ErrUnsupportedBltFlag reports flags without an implementation.
	ErrUnsupportedBltFlag = errors.New("blit: unsupported blit flag")

	// ErrFormatMismatch is returned when source and destination pixels
	// differ in size.
	ErrFormatMismatch = errors.New("blit: source and destination formats differ")
)

// Key is an inclusive range of pixel values.
type Key struct {
	Low, High uint32
}

// Contains reports whether v lies in the range.
func (k Key) Contains(v uint32) bool {
	return v >= k.Low && v <= k.High
}

// View is locked surface memory. Pix starts at pixel (0, 0).
type View struct {
	Pix    []byte
	Pitch  int
	Width  int
	Height int
	Format pixfmt.PixelFormat

	// SrcKey is used by KeySrc when the view is the source, DstKey by
	// KeyDest when it is the destination.
	SrcKey, DstKey *Key
}

func (v *View) bounds() pixfmt.Rect {
	return pixfmt.Full(v.Width, v.Height)
}

// Flags select blit operations.
type Flags uint32

// Blit flags.
const (
	ColorFill Flags = 1 << iota
	ROP
	KeySrc
	KeySrcOverride
	KeyDest
	KeyDestOverride
	Wait
	Async
	DDFX
	AlphaDest
	AlphaSrc
	ZBuffer
	Rotation
)

var flagNames = []string{
	"colorfill", "rop", "keysrc", "keysrcoverride", "keydest",
	"keydestoverride", "wait", "async", "ddfx", "alphadest", "alphasrc",
	"zbuffer", "rotation",
}

// String lists the set flags.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	if rest := f &^ (1<<len(flagNames) - 1); rest != 0 {
		if s != "" {
			s += "|"
		}
		s += fmt.Sprintf("%#x", uint32(rest))
	}
	return s
}

// Raster operations.
const (
	SrcCopy   uint32 = 0x00CC0020
	Blackness uint32 = 0x00000042
	Whiteness uint32 = 0x00FF0062
	DstNoop   uint32 = 0x00AA0029
)

// Effects are the DDFX effects.
type Effects uint32

// Supported effects.
const (
	MirrorLeftRight Effects = 1 << iota
	MirrorUpDown
)

// FX holds the parameters of the flags that need one.
type FX struct {
	// FillColor is written by ColorFill, in the destination pixel format.
	FillColor uint32

	// ROP is the raster operation used with the ROP flag.
	ROP uint32

	// SrcKey and DstKey are used by the override key flags.
	SrcKey, DstKey Key

	// Effects are applied with DDFX.
	Effects Effects
}

// Blt performs one blit from srcRect of src to dstRect of dst. Nil
// rectangles mean the whole surface; src may be nil for fills. The returned
// flags are the ones that could not be honored; they are logged and do not
// fail the call.
func Blt(dst *View, dstRect *pixfmt.Rect, src *View, srcRect *pixfmt.Rect, flags Flags, fx *FX) (Flags, error) {
	if fx == nil {
		fx = &FX{}
	}
	dr, err := checkRect(dstRect, dst)
	if err != nil {
		return flags, err
	}
	rest := flags &^ (Wait | Async)

	switch {
	case rest&ColorFill != 0:
		if err := fill(dst, dr, fx.FillColor); err != nil {
			return flags, err
		}
		rest &^= ColorFill
		return warn(rest), nil

	case rest&ROP != 0:
		switch fx.ROP {
		case Blackness:
			if err := fill(dst, dr, 0); err != nil {
				return flags, err
			}
			rest &^= ROP
			return warn(rest), nil
		case Whiteness:
			if err := fill(dst, dr, pixfmt.Mask(dst.Format.BytesPerPixel())); err != nil {
				return flags, err
			}
			rest &^= ROP
			return warn(rest), nil
		case DstNoop:
			rest &^= ROP
			return warn(rest), nil
		case SrcCopy:
			rest &^= ROP
		default:
			return warn(rest), nil
		}
	}

	if src == nil {
		return warn(rest), nil
	}
	sr, err := checkRect(srcRect, src)
	if err != nil {
		return flags, err
	}
	if src.Format.BytesPerPixel() != dst.Format.BytesPerPixel() {
		return flags, fmt.Errorf("%w: %v to %v", ErrFormatMismatch, src.Format, dst.Format)
	}
	if dr.Empty() || sr.Empty() {
		return warn(rest), nil
	}

	var op copyOp
	if rest&DDFX != 0 {
		if fx.Effects&^(MirrorLeftRight|MirrorUpDown) == 0 {
			op.mirrorX = fx.Effects&MirrorLeftRight != 0
			op.mirrorY = fx.Effects&MirrorUpDown != 0
			rest &^= DDFX
		}
	}
	switch {
	case rest&KeySrcOverride != 0:
		k := fx.SrcKey
		op.srcKey = &k
		rest &^= KeySrcOverride | KeySrc
	case rest&KeySrc != 0 && src.SrcKey != nil:
		op.srcKey = src.SrcKey
		rest &^= KeySrc
	}
	switch {
	case rest&KeyDestOverride != 0:
		k := fx.DstKey
		op.dstKey = &k
		rest &^= KeyDestOverride | KeyDest
	case rest&KeyDest != 0 && dst.DstKey != nil:
		op.dstKey = dst.DstKey
		rest &^= KeyDest
	}

	if err := op.run(dst, dr, src, sr); err != nil {
		return flags, err
	}
	return warn(rest), nil
}

func checkRect(r *pixfmt.Rect, v *View) (pixfmt.Rect, error) {
	rect, err := pixfmt.Resolve(r, v.Width, v.Height)
	if err != nil {
		return pixfmt.Rect{}, err
	}
	if rect.Left > rect.Right || rect.Top > rect.Bottom || !rect.In(v.bounds()) {
		return pixfmt.Rect{}, fmt.Errorf("%w: %v outside %dx%d", pixfmt.ErrInvalidRect, rect, v.Width, v.Height)
	}
	return rect, nil
}

func warn(rest Flags) Flags {
	if rest != 0 {
		dlog.Logger().Warn("blit: flags not honored", "flags", rest.String(), "err", ErrUnsupportedBltFlag)
	}
	return rest
}

// Fill writes color into every pixel of r: the first row pixel by pixel,
// then row by row.
func Fill(dst *View, r *pixfmt.Rect, color uint32) error {
	dr, err := checkRect(r, dst)
	if err != nil {
		return err
	}
	return fill(dst, dr, color)
}

func fill(dst *View, r pixfmt.Rect, color uint32) error {
	if r.Empty() {
		return nil
	}
	bpp := dst.Format.BytesPerPixel()
	n := r.Width() * bpp
	first := dst.Pix[r.Top*dst.Pitch+r.Left*bpp:]
	first = first[:n]
	switch bpp {
	case 1:
		c := byte(color)
		for i := range first {
			first[i] = c
		}
	case 2:
		c0, c1 := byte(color), byte(color>>8)
		for i := 0; i < n; i += 2 {
			first[i], first[i+1] = c0, c1
		}
	case 3:
		c0, c1, c2 := byte(color), byte(color>>8), byte(color>>16)
		for i := 0; i < n; i += 3 {
			first[i], first[i+1], first[i+2] = c0, c1, c2
		}
	case 4:
		c0, c1, c2, c3 := byte(color), byte(color>>8), byte(color>>16), byte(color>>24)
		for i := 0; i < n; i += 4 {
			first[i], first[i+1], first[i+2], first[i+3] = c0, c1, c2, c3
		}
	default:
		return fmt.Errorf("%w: %d", pixfmt.ErrUnsupportedBpp, bpp)
	}
	for y := r.Top + 1; y < r.Bottom; y++ {
		off := y*dst.Pitch + r.Left*bpp
		copy(dst.Pix[off:off+n], first)
	}
	return nil
}
