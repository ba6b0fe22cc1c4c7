// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package convert

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/ddraw/pixfmt"
)

// palette332 returns the 3-3-2 palette: index bits rrrgggbb.
func palette332() []color.RGBA {
	r3 := pixfmt.Channel{Width: 3}
	b2 := pixfmt.Channel{Width: 2}
	out := make([]color.RGBA, 256)
	for i := range out {
		out[i] = color.RGBA{
			R: r3.Expand(uint32(i>>5) & 7),
			G: r3.Expand(uint32(i>>2) & 7),
			B: b2.Expand(uint32(i) & 3),
			A: 0xFF,
		}
	}
	return out
}

// representative returns host pixel values covering extremes and mid tones.
func representative(f pixfmt.PixelFormat) []uint32 {
	var out []uint32
	for _, c := range []uint8{0x00, 0x10, 0x40, 0x7F, 0x80, 0xC0, 0xEE, 0xFF} {
		out = append(out,
			f.Pack(c, 0, 0, 0),
			f.Pack(0, c, 0, 0),
			f.Pack(0, 0, c, 0),
			f.Pack(c, c, c, 0),
			f.Pack(c, 0xFF-c, c/2, 0),
		)
	}
	return out
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// tolerance is the largest error a round trip through a channel of the
// given width may introduce.
func tolerance(width int) int {
	if width >= 8 {
		return 0
	}
	return 1 << (8 - width)
}

func TestRoundTripThroughTable(t *testing.T) {
	pal := palette332()
	for _, e := range Table {
		t.Run(e.Name, func(t *testing.T) {
			hb, tb := e.Host.BytesPerPixel(), e.Target.BytesPerPixel()
			values := representative(e.Host)
			w := len(values)

			host := make([]byte, w*hb)
			for i, v := range values {
				pixfmt.Store(host[i*hb:], hb, v)
			}

			var lut []uint32
			if e.Palette != nil {
				lut = make([]uint32, 256)
				e.Palette(pal, lut)
			}

			target := make([]byte, w*tb)
			back := make([]byte, w*hb)
			if err := e.Inverse(target, w*tb, host, w*hb, w, 1, lut); err != nil {
				t.Fatalf("Inverse: %v", err)
			}
			if err := e.Pixel(back, w*hb, target, w*tb, w, 1, lut); err != nil {
				t.Fatalf("Pixel: %v", err)
			}

			tr, tg, tbl := toleranceFor(e)
			for i, v := range values {
				got := pixfmt.Load(back[i*hb:], hb)
				r0, g0, b0, _ := e.Host.Unpack(v)
				r1, g1, b1, _ := e.Host.Unpack(got)
				if absDiff(r0, r1) > tr || absDiff(g0, g1) > tg || absDiff(b0, b1) > tbl {
					t.Errorf("value %#x came back as %#x (tolerance %d/%d/%d)", v, got, tr, tg, tbl)
				}
			}
		})
	}
}

// toleranceFor returns per-channel tolerances: the narrowest channel on
// either side of the entry decides.
func toleranceFor(e *Entry) (int, int, int) {
	if e.Indexed() {
		// 3-3-2 palette, nearest match: at most half a step plus rounding.
		return 1 << 5, 1 << 5, 1 << 6
	}
	w := func(a, b uint32) int {
		wa, wb := pixfmt.ChannelOf(a).Width, pixfmt.ChannelOf(b).Width
		if wa < wb {
			return wa
		}
		return wb
	}
	return tolerance(w(e.Host.RMask, e.Target.RMask)),
		tolerance(w(e.Host.GMask, e.Target.GMask)),
		tolerance(w(e.Host.BMask, e.Target.BMask))
}

func TestTableInverseEntries(t *testing.T) {
	for _, e := range Table {
		if e.Indexed() {
			continue
		}
		inv := Inverse(e)
		if inv == nil {
			continue
		}
		if !inv.Host.MasksEqual(e.Target) || !inv.Target.MasksEqual(e.Host) {
			t.Errorf("%s: inverse %s does not swap formats", e.Name, inv.Name)
		}
	}
}

func TestIndexedPixelUsesLUT(t *testing.T) {
	e := Lookup(pixfmt.RGB888, pixfmt.Indexed8)
	if e == nil {
		t.Fatal("no 24<-8 entry")
	}
	lut := make([]uint32, 256)
	pal := make([]color.RGBA, 256)
	pal[7] = color.RGBA{R: 0x11, G: 0x22, B: 0x33}
	e.Palette(pal, lut)

	src := []byte{7, 0}
	dst := make([]byte, 6)
	if err := e.Pixel(dst, 6, src, 2, 2, 1, lut); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 0x33 || dst[1] != 0x22 || dst[2] != 0x11 {
		t.Errorf("pixel 0 = % x, want 33 22 11", dst[:3])
	}
	if dst[3] != 0 || dst[4] != 0 || dst[5] != 0 {
		t.Errorf("pixel 1 = % x, want zero", dst[3:])
	}
}

func TestIndexedPixelRequiresLUT(t *testing.T) {
	e := Lookup(pixfmt.XRGB8888, pixfmt.Indexed8)
	err := e.Pixel(make([]byte, 4), 4, []byte{0}, 1, 1, 1, nil)
	if err == nil {
		t.Fatal("expected error without a palette table")
	}
}

func TestUnsupportedBpp(t *testing.T) {
	if _, err := reader(5); !errors.Is(err, pixfmt.ErrUnsupportedBpp) {
		t.Errorf("reader(5) error = %v, want ErrUnsupportedBpp", err)
	}
	if _, err := writer(0); !errors.Is(err, pixfmt.ErrUnsupportedBpp) {
		t.Errorf("writer(0) error = %v, want ErrUnsupportedBpp", err)
	}
}

func TestPitchRespected(t *testing.T) {
	e := Lookup(pixfmt.XRGB8888, pixfmt.RGB565)
	// 2x2 source with a padded pitch of 8 bytes.
	src := make([]byte, 16)
	pixfmt.Store(src[0:], 2, 0xF800)
	pixfmt.Store(src[8+2:], 2, 0x001F)
	dst := make([]byte, 2*12)
	if err := e.Pixel(dst, 12, src, 8, 2, 2, nil); err != nil {
		t.Fatal(err)
	}
	if got := pixfmt.Load(dst[0:], 4); got != 0xFF0000 {
		t.Errorf("(0,0) = %#x, want 0xff0000", got)
	}
	if got := pixfmt.Load(dst[12+4:], 4); got != 0x0000FF {
		t.Errorf("(1,1) = %#x, want 0x0000ff", got)
	}
}
