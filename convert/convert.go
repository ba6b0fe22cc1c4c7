// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package convert implements the depth-emulation conversion pipeline.
//
// When the display cannot show a requested color depth natively, surfaces
// keep their pixels in the requested (target) format and a host-format
// shadow buffer is refreshed from them on every flush. Each Entry of Table
// pairs one host format with one target format and supplies the pixel and
// palette converters for that pair.
package convert

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/gogpu/ddraw/pixfmt"
)

// PixelFunc converts a w×h block of pixels from src to dst. For entries
// with an indexed target, lut holds the palette in host format.
type PixelFunc func(dst []byte, dstPitch int, src []byte, srcPitch int, w, h int, lut []uint32) error

// PaletteFunc fills lut with the host-format value of every palette entry.
type PaletteFunc func(entries []color.RGBA, lut []uint32)

// Entry pairs a host format with an emulated target format.
type Entry struct {
	Name   string
	Host   pixfmt.PixelFormat
	Target pixfmt.PixelFormat

	// Pixel converts target pixels to host pixels.
	Pixel PixelFunc

	// Inverse converts host pixels back to target pixels. Indexed targets
	// map every host value to the nearest palette entry.
	Inverse PixelFunc

	// Palette builds the host lookup table. Nil for RGB targets.
	Palette PaletteFunc
}

// String returns the entry name.
func (e *Entry) String() string {
	return e.Name
}

// Indexed reports whether the target is palettized.
func (e *Entry) Indexed() bool {
	return e.Target.IsIndexed()
}

// Table is the ordered list of emulation entries. Earlier entries win when
// several match.
var Table = []*Entry{
	indexedEntry("32<-8", pixfmt.XRGB8888),
	rgbEntry("32<-16", pixfmt.XRGB8888, pixfmt.RGB565),
	rgbEntry("32<-15", pixfmt.XRGB8888, pixfmt.RGB555),
	rgbEntry("32<-24", pixfmt.XRGB8888, pixfmt.RGB888),
	indexedEntry("24<-8", pixfmt.RGB888),
	rgbEntry("24<-16", pixfmt.RGB888, pixfmt.RGB565),
	rgbEntry("24<-32", pixfmt.RGB888, pixfmt.XRGB8888),
	indexedEntry("16<-8", pixfmt.RGB565),
	rgbEntry("16<-15", pixfmt.RGB565, pixfmt.RGB555),
	rgbEntry("16<-32", pixfmt.RGB565, pixfmt.XRGB8888),
	indexedEntry("15<-8", pixfmt.RGB555),
	rgbEntry("15<-16", pixfmt.RGB555, pixfmt.RGB565),
}

// Lookup returns the first entry converting target into host, or nil.
func Lookup(host, target pixfmt.PixelFormat) *Entry {
	for _, e := range Table {
		if e.Host.MasksEqual(host) && e.Target.MasksEqual(target) {
			return e
		}
	}
	return nil
}

// Inverse returns the entry converting host into target when it exists in
// the table. Entries with indexed targets have no table inverse; their own
// Inverse func is used instead.
func Inverse(e *Entry) *Entry {
	return Lookup(e.Target, e.Host)
}

// PaletteToHost fills lut by packing each entry into the host format.
func PaletteToHost(host pixfmt.PixelFormat) PaletteFunc {
	return func(entries []color.RGBA, lut []uint32) {
		n := len(entries)
		if len(lut) < n {
			n = len(lut)
		}
		for i := 0; i < n; i++ {
			c := entries[i]
			lut[i] = host.Pack(c.R, c.G, c.B, 0)
		}
	}
}

func indexedEntry(name string, host pixfmt.PixelFormat) *Entry {
	hb := host.BytesPerPixel()
	return &Entry{
		Name:   name,
		Host:   host,
		Target: pixfmt.Indexed8,
		Pixel: func(dst []byte, dstPitch int, src []byte, srcPitch int, w, h int, lut []uint32) error {
			if len(lut) < 256 {
				return fmt.Errorf("convert: %s needs a 256-entry palette table, have %d", name, len(lut))
			}
			return mapRows(dst, dstPitch, hb, src, srcPitch, 1, w, h, func(v uint32) uint32 {
				return lut[v&0xFF]
			})
		},
		Inverse: func(dst []byte, dstPitch int, src []byte, srcPitch int, w, h int, lut []uint32) error {
			if len(lut) < 256 {
				return fmt.Errorf("convert: %s needs a 256-entry palette table, have %d", name, len(lut))
			}
			cache := make(map[uint32]uint32)
			return mapRows(dst, dstPitch, 1, src, srcPitch, hb, w, h, func(v uint32) uint32 {
				if idx, ok := cache[v]; ok {
					return idx
				}
				idx := nearest(host, v, lut[:256])
				cache[v] = idx
				return idx
			})
		},
		Palette: PaletteToHost(host),
	}
}

// nearest returns the index of the lut value closest to v in RGB space.
func nearest(host pixfmt.PixelFormat, v uint32, lut []uint32) uint32 {
	r, g, b, _ := host.Unpack(v)
	best, bestDist := 0, int(^uint(0)>>1)
	for i, p := range lut {
		pr, pg, pb, _ := host.Unpack(p)
		dr, dg, db := int(r)-int(pr), int(g)-int(pg), int(b)-int(pb)
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	return uint32(best)
}

func rgbEntry(name string, host, target pixfmt.PixelFormat) *Entry {
	return &Entry{
		Name:    name,
		Host:    host,
		Target:  target,
		Pixel:   rgbFunc(target, host),
		Inverse: rgbFunc(host, target),
	}
}

// rgbFunc returns a converter between two RGB formats. 16-bit sources go
// through a table built on first use.
func rgbFunc(from, to pixfmt.PixelFormat) PixelFunc {
	fb, tb := from.BytesPerPixel(), to.BytesPerPixel()
	remap := func(v uint32) uint32 {
		r, g, b, _ := from.Unpack(v)
		return to.Pack(r, g, b, 0)
	}
	if fb != 2 {
		return func(dst []byte, dstPitch int, src []byte, srcPitch int, w, h int, _ []uint32) error {
			return mapRows(dst, dstPitch, tb, src, srcPitch, fb, w, h, remap)
		}
	}
	var (
		once  sync.Once
		table []uint32
	)
	return func(dst []byte, dstPitch int, src []byte, srcPitch int, w, h int, _ []uint32) error {
		once.Do(func() {
			table = make([]uint32, 1<<16)
			for i := range table {
				table[i] = remap(uint32(i))
			}
		})
		return mapRows(dst, dstPitch, tb, src, srcPitch, fb, w, h, func(v uint32) uint32 {
			return table[v&0xFFFF]
		})
	}
}
