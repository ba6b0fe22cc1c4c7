// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pixfmt

import (
	"errors"
	"testing"
)

func TestDepth(t *testing.T) {
	tests := []struct {
		name string
		f    PixelFormat
		want int
	}{
		{"indexed8", Indexed8, 8},
		{"rgb555", RGB555, 15},
		{"rgb565", RGB565, 16},
		{"rgb888", RGB888, 24},
		{"xrgb8888", XRGB8888, 24},
		{"argb8888", ARGB8888, 24},
		{"zbuffer16", ZBuffer16, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Depth(); got != tt.want {
				t.Errorf("Depth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBytesPerPixel(t *testing.T) {
	for _, f := range []PixelFormat{Indexed8, RGB565, RGB888, XRGB8888} {
		if got, want := f.BytesPerPixel(), f.BitsPerPixel/8; got != want {
			t.Errorf("%v: BytesPerPixel() = %d, want %d", f, got, want)
		}
	}
}

func TestPackUnpack(t *testing.T) {
	p := RGB565.Pack(0xFF, 0x00, 0xFF, 0xFF)
	if p != 0xF81F {
		t.Fatalf("Pack = %#x, want 0xf81f", p)
	}
	r, g, b, a := RGB565.Unpack(p)
	if r != 0xFF || g != 0 || b != 0xFF || a != 0xFF {
		t.Errorf("Unpack = (%d,%d,%d,%d)", r, g, b, a)
	}

	r, g, b, _ = XRGB8888.Unpack(0x00123456)
	if r != 0x12 || g != 0x34 || b != 0x56 {
		t.Errorf("XRGB Unpack = (%#x,%#x,%#x)", r, g, b)
	}
}

func TestChannelExpandFullScale(t *testing.T) {
	for w := 1; w <= 8; w++ {
		c := Channel{Width: w}
		if got := c.Expand(1<<w - 1); got != 0xFF {
			t.Errorf("width %d: Expand(max) = %#x, want 0xff", w, got)
		}
		if got := c.Expand(0); got != 0 {
			t.Errorf("width %d: Expand(0) = %#x", w, got)
		}
	}
}

func TestLoadStore(t *testing.T) {
	buf := make([]byte, 4)
	for bpp := 1; bpp <= 4; bpp++ {
		v := uint32(0x11223344) & Mask(bpp)
		Store(buf, bpp, v)
		if got := Load(buf, bpp); got != v {
			t.Errorf("bpp %d: Load = %#x, want %#x", bpp, got, v)
		}
	}
}

func TestResolveRect(t *testing.T) {
	r, err := Resolve(nil, 10, 20)
	if err != nil || r != Full(10, 20) {
		t.Fatalf("Resolve(nil) = %v, %v", r, err)
	}
	_, err = Resolve(&Rect{Left: -1, Right: 4, Bottom: 4}, 10, 10)
	if !errors.Is(err, ErrInvalidRect) {
		t.Errorf("negative rect error = %v, want ErrInvalidRect", err)
	}
}

func TestIntersect(t *testing.T) {
	got := R(0, 0, 10, 10).Intersect(R(5, 5, 20, 20))
	if got != R(5, 5, 10, 10) {
		t.Errorf("Intersect = %v", got)
	}
	if !R(0, 0, 2, 2).Intersect(R(4, 4, 6, 6)).Empty() {
		t.Error("disjoint rects should intersect to empty")
	}
}

func TestFourCC(t *testing.T) {
	f := MakeFourCC('Y', 'U', 'Y', '2')
	if f.String() != "YUY2" {
		t.Errorf("FourCC.String() = %q", f.String())
	}
}
