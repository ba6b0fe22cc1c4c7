// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hostbuf

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/gogpu/ddraw/convert"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/surface"
)

func TestConvertCopiesRect(t *testing.T) {
	src := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}
	dst := make([]byte, 2*6)
	r := pixfmt.R(1, 0, 3, 2)
	if err := Convert(dst, 6, src, 4, pixfmt.Indexed8, pixfmt.Indexed8, r, nil, nil); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0, 2, 3, 0, 0, 0,
		0, 6, 7, 0, 0, 0,
	}
	if !bytes.Equal(dst, want) {
		t.Errorf("dst = %v, want %v", dst, want)
	}
}

func TestConvertNeedsConverterAcrossDepths(t *testing.T) {
	err := Convert(make([]byte, 16), 16, make([]byte, 4), 4, pixfmt.Indexed8, pixfmt.XRGB8888, pixfmt.R(0, 0, 4, 1), nil, nil)
	if err == nil {
		t.Error("copying 8-bit pixels into a 32-bit image succeeded")
	}
}

func TestConvertIndexed(t *testing.T) {
	conv := convert.Lookup(pixfmt.XRGB8888, pixfmt.Indexed8)
	if conv == nil {
		t.Fatal("no 32<-8 entry")
	}
	lut := make([]uint32, 256)
	conv.Palette([]color.RGBA{{}, {R: 0xFF}, {B: 0xFF}}, lut)

	src := []byte{1, 2, 0}
	dst := make([]byte, 12)
	if err := Convert(dst, 12, src, 3, pixfmt.Indexed8, pixfmt.XRGB8888, pixfmt.R(0, 0, 3, 1), conv, lut); err != nil {
		t.Fatal(err)
	}
	for i, want := range []uint32{0xFF0000, 0x0000FF, 0} {
		if got := pixfmt.Load(dst[4*i:], 4); got != want {
			t.Errorf("pixel %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestPlainPrimaryUsesHostPitch(t *testing.T) {
	req := surface.StorageRequest{
		Width:     10,
		Height:    2,
		Format:    pixfmt.Indexed8,
		Host:      pixfmt.Indexed8,
		Caps:      surface.Primary,
		Allocator: surface.DefaultAllocator(),
	}
	p, err := NewPlain(req, 12, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()
	if p.Pitch() != 12 {
		t.Errorf("primary pitch = %d, want host pitch 12", p.Pitch())
	}
	if p.Shadow() != nil {
		t.Error("shadow allocated without emulation")
	}

	req.Caps = surface.Offscreen
	off, err := NewPlain(req, 12, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer off.Release()
	if off.Pitch() != 10 {
		t.Errorf("offscreen pitch = %d, want 10", off.Pitch())
	}
}

func TestPlainEmulatedFlush(t *testing.T) {
	conv := convert.Lookup(pixfmt.RGB565, pixfmt.Indexed8)
	req := surface.StorageRequest{
		Width:     4,
		Height:    2,
		Format:    pixfmt.Indexed8,
		Host:      pixfmt.RGB565,
		Converter: conv,
		Caps:      surface.Primary,
		Allocator: surface.DefaultAllocator(),
	}
	var got host.Image
	var gotRect pixfmt.Rect
	p, err := NewPlain(req, 8, func(img host.Image, r pixfmt.Rect) error {
		got, gotRect = img, r
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()

	lut := make([]uint32, 256)
	lut[3] = 0xF800
	p.Pix()[p.Pitch()+2] = 3
	r := pixfmt.R(2, 1, 3, 2)
	if err := p.Flush(r, lut); err != nil {
		t.Fatal(err)
	}
	if gotRect != r || got.Stride != 8 || got.Format != pixfmt.RGB565 {
		t.Fatalf("presented %v stride %d format %v", gotRect, got.Stride, got.Format)
	}
	if v := pixfmt.Load(got.Pix[8+2*2:], 2); v != 0xF800 {
		t.Errorf("shadow pixel = %#x, want 0xf800", v)
	}
}
