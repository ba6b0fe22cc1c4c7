// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"

	"github.com/gogpu/ddraw/convert"
	"github.com/gogpu/ddraw/pixfmt"
)

// Handle addresses a surface in its Manager. The zero Handle is invalid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.index, h.gen)
}

// ColorKey is an inclusive range of pixel values treated as transparent.
type ColorKey struct {
	Low, High uint32
}

// KeyKind selects the source or destination color key.
type KeyKind int

const (
	SrcKey KeyKind = iota
	DstKey
)

// Desc describes a surface.
type Desc struct {
	Width, Height int
	Pitch         int
	Format        pixfmt.PixelFormat
	Caps          Caps

	// BackBufferCount is the number of chain members after this one.
	BackBufferCount int

	// SrcKey and DstKey are nil when unset.
	SrcKey, DstKey *ColorKey

	Palette *Palette
	Clipper *Clipper
}

// Surface is the record of one live surface.
type Surface struct {
	handle  Handle
	format  pixfmt.PixelFormat
	width   int
	height  int
	caps    Caps
	storage Storage

	palette *Palette
	clipper *Clipper
	chain   *FlipChain

	refs     int
	locked   bool
	lockRect pixfmt.Rect

	srcKey, dstKey *ColorKey

	// host and conv describe depth emulation for visible surfaces.
	host pixfmt.PixelFormat
	conv *convert.Entry
}

// Handle returns the handle of s.
func (s *Surface) Handle() Handle { return s.handle }

// Format returns the pixel format.
func (s *Surface) Format() pixfmt.PixelFormat { return s.format }

// Size returns the width and height in pixels.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// Pitch returns the row size of the storage.
func (s *Surface) Pitch() int { return s.storage.Pitch() }

// Caps returns the capability flags.
func (s *Surface) Caps() Caps { return s.caps }

// Palette returns the attached palette, or nil.
func (s *Surface) Palette() *Palette { return s.palette }

// Clipper returns the attached clipper, or nil.
func (s *Surface) Clipper() *Clipper { return s.clipper }

// Chain returns the flip chain of s, or nil.
func (s *Surface) Chain() *FlipChain { return s.chain }

// Locked reports whether s is locked.
func (s *Surface) Locked() bool { return s.locked }

// Refs returns the reference count.
func (s *Surface) Refs() int { return s.refs }

// ColorKey returns the key of the given kind, or nil.
func (s *Surface) ColorKey(kind KeyKind) *ColorKey {
	k := s.srcKey
	if kind == DstKey {
		k = s.dstKey
	}
	if k == nil {
		return nil
	}
	c := *k
	return &c
}

// Converter returns the depth-emulation entry of a visible surface.
func (s *Surface) Converter() *convert.Entry { return s.conv }

// Desc returns the description of s.
func (s *Surface) Desc() Desc {
	d := Desc{
		Width:   s.width,
		Height:  s.height,
		Pitch:   s.storage.Pitch(),
		Format:  s.format,
		Caps:    s.caps,
		SrcKey:  s.ColorKey(SrcKey),
		DstKey:  s.ColorKey(DstKey),
		Palette: s.palette,
		Clipper: s.clipper,
	}
	if s.chain != nil && s.caps&Complex != 0 {
		d.BackBufferCount = s.chain.Len() - 1
	}
	return d
}

// visible reports whether unlocking s reaches the display.
func (s *Surface) visible() bool {
	return s.caps.Has(Primary | Visible)
}

// LockedRect is the addressable memory returned by Lock.
type LockedRect struct {
	// Pix starts at the top-left pixel of the locked rectangle.
	Pix    []byte
	Pitch  int
	Rect   pixfmt.Rect
	Format pixfmt.PixelFormat
}
