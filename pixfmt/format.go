// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pixfmt describes pixel formats, rectangles and the error kinds
// shared by every layer of the surface engine.
//
// A PixelFormat is a small value type. Once a surface is created with a
// format, that format never changes.
package pixfmt

import (
	"errors"
	"fmt"
	"math/bits"
)

// Shared error kinds.
var (
	// ErrInvalidRect is returned when a rectangle has a negative coordinate.
	ErrInvalidRect = errors.New("pixfmt: invalid rectangle")

	// ErrUnsupportedBpp is returned when a conversion or blit loop has no
	// specialization for the pixel byte width.
	ErrUnsupportedBpp = errors.New("pixfmt: unsupported bytes per pixel")
)

// Model is the color model of a pixel format.
type Model uint8

const (
	// Indexed8Model pixels are 8-bit indices into a palette.
	Indexed8Model Model = iota

	// RGBModel pixels carry red, green and blue channels.
	RGBModel

	// RGBAlphaModel pixels carry an alpha channel as well.
	RGBAlphaModel

	// ZBufferModel pixels are depth values.
	ZBufferModel
)

// String returns the model name.
func (m Model) String() string {
	switch m {
	case Indexed8Model:
		return "indexed8"
	case RGBModel:
		return "rgb"
	case RGBAlphaModel:
		return "rgb-with-alpha"
	case ZBufferModel:
		return "z-buffer"
	default:
		return "unknown"
	}
}

// FourCC is a four-character codec tag.
type FourCC uint32

// MakeFourCC packs four characters little-endian.
func MakeFourCC(a, b, c, d byte) FourCC {
	return FourCC(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// String returns the tag as text, or "" for the zero tag.
func (f FourCC) String() string {
	if f == 0 {
		return ""
	}
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

// PixelFormat describes how a pixel is laid out in memory.
type PixelFormat struct {
	BitsPerPixel int
	Model        Model

	// Channel masks. All zero for indexed formats.
	RMask, GMask, BMask, AMask uint32

	// FourCC is set for codec formats only.
	FourCC FourCC
}

// Predefined formats.
var (
	Indexed8  = PixelFormat{BitsPerPixel: 8, Model: Indexed8Model}
	RGB555    = PixelFormat{BitsPerPixel: 16, Model: RGBModel, RMask: 0x7C00, GMask: 0x03E0, BMask: 0x001F}
	RGB565    = PixelFormat{BitsPerPixel: 16, Model: RGBModel, RMask: 0xF800, GMask: 0x07E0, BMask: 0x001F}
	RGB888    = PixelFormat{BitsPerPixel: 24, Model: RGBModel, RMask: 0xFF0000, GMask: 0x00FF00, BMask: 0x0000FF}
	XRGB8888  = PixelFormat{BitsPerPixel: 32, Model: RGBModel, RMask: 0xFF0000, GMask: 0x00FF00, BMask: 0x0000FF}
	ARGB8888  = PixelFormat{BitsPerPixel: 32, Model: RGBAlphaModel, RMask: 0xFF0000, GMask: 0x00FF00, BMask: 0x0000FF, AMask: 0xFF000000}
	ZBuffer16 = PixelFormat{BitsPerPixel: 16, Model: ZBufferModel}
)

// BytesPerPixel returns the number of bytes one pixel occupies.
func (f PixelFormat) BytesPerPixel() int {
	return (f.BitsPerPixel + 7) / 8
}

// Depth returns the number of significant color bits: the popcount of the
// color masks for RGB formats and the pixel size otherwise.
// XRGB8888 has depth 24, RGB555 depth 15.
func (f PixelFormat) Depth() int {
	switch f.Model {
	case RGBModel, RGBAlphaModel:
		return bits.OnesCount32(f.RMask | f.GMask | f.BMask)
	default:
		return f.BitsPerPixel
	}
}

// IsIndexed reports whether pixels are palette indices.
func (f PixelFormat) IsIndexed() bool {
	return f.Model == Indexed8Model
}

// HasAlpha reports whether the format has an alpha channel.
func (f PixelFormat) HasAlpha() bool {
	return f.Model == RGBAlphaModel && f.AMask != 0
}

// Equal reports whether two formats describe the same memory layout.
func (f PixelFormat) Equal(o PixelFormat) bool {
	return f == o
}

// MasksEqual reports whether the pixel size and color masks match,
// ignoring the model and alpha mask.
func (f PixelFormat) MasksEqual(o PixelFormat) bool {
	return f.BitsPerPixel == o.BitsPerPixel &&
		f.RMask == o.RMask && f.GMask == o.GMask && f.BMask == o.BMask
}

// RowBytes returns the tight row size for width pixels.
func (f PixelFormat) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// Valid reports whether the format can back a surface.
func (f PixelFormat) Valid() bool {
	switch f.BitsPerPixel {
	case 8, 16, 24, 32:
	default:
		return false
	}
	if f.Model == Indexed8Model {
		return f.BitsPerPixel == 8 && f.RMask|f.GMask|f.BMask|f.AMask == 0
	}
	return true
}

// String returns a compact description such as "16bpp rgb 565".
func (f PixelFormat) String() string {
	switch f.Model {
	case Indexed8Model, ZBufferModel:
		return fmt.Sprintf("%dbpp %s", f.BitsPerPixel, f.Model)
	}
	s := fmt.Sprintf("%dbpp %s %d%d%d", f.BitsPerPixel, f.Model,
		bits.OnesCount32(f.RMask), bits.OnesCount32(f.GMask), bits.OnesCount32(f.BMask))
	if f.AMask != 0 {
		s += fmt.Sprintf("a%d", bits.OnesCount32(f.AMask))
	}
	if f.FourCC != 0 {
		s += " " + f.FourCC.String()
	}
	return s
}

// Channel describes one color channel by its shift and width in bits.
type Channel struct {
	Shift int
	Width int
}

// ChannelOf returns the channel layout of a mask.
func ChannelOf(mask uint32) Channel {
	if mask == 0 {
		return Channel{}
	}
	return Channel{Shift: bits.TrailingZeros32(mask), Width: bits.OnesCount32(mask)}
}

// Expand scales a channel value to 8 bits by bit replication.
func (c Channel) Expand(v uint32) uint8 {
	if c.Width == 0 {
		return 0
	}
	if c.Width >= 8 {
		return uint8(v >> (c.Width - 8))
	}
	v <<= 8 - c.Width
	out := v
	for w := c.Width; w < 8; w += c.Width {
		out |= v >> w
	}
	return uint8(out)
}

// Reduce scales an 8-bit value to the channel width.
func (c Channel) Reduce(v uint8) uint32 {
	if c.Width == 0 {
		return 0
	}
	if c.Width >= 8 {
		return uint32(v) << (c.Width - 8)
	}
	return uint32(v) >> (8 - c.Width)
}

// Pack builds a pixel value from 8-bit channels.
func (f PixelFormat) Pack(r, g, b, a uint8) uint32 {
	rc, gc, bc, ac := ChannelOf(f.RMask), ChannelOf(f.GMask), ChannelOf(f.BMask), ChannelOf(f.AMask)
	return rc.Reduce(r)<<rc.Shift | gc.Reduce(g)<<gc.Shift | bc.Reduce(b)<<bc.Shift | ac.Reduce(a)<<ac.Shift
}

// Unpack splits a pixel value into 8-bit channels. Formats without an alpha
// mask report alpha 0xFF.
func (f PixelFormat) Unpack(p uint32) (r, g, b, a uint8) {
	rc, gc, bc := ChannelOf(f.RMask), ChannelOf(f.GMask), ChannelOf(f.BMask)
	r = rc.Expand((p & f.RMask) >> rc.Shift)
	g = gc.Expand((p & f.GMask) >> gc.Shift)
	b = bc.Expand((p & f.BMask) >> bc.Shift)
	a = 0xFF
	if f.AMask != 0 {
		ac := ChannelOf(f.AMask)
		a = ac.Expand((p & f.AMask) >> ac.Shift)
	}
	return r, g, b, a
}
