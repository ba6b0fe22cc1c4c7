// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package user

import (
	"image/color"
	"testing"

	"github.com/gogpu/ddraw/host/memhost"
	"github.com/gogpu/ddraw/mode"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/surface"
)

func TestDescriptorAlwaysAvailable(t *testing.T) {
	d := Descriptor()
	if d.ID != ID || d.Priority != Priority {
		t.Errorf("descriptor = %s/%d", d.ID, d.Priority)
	}
	if d.Probe != nil {
		t.Error("plain transfers should not need a probe")
	}
	b, err := d.Factory(memhost.New(memhost.Config{}))
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != ID {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestUnlockPutsImage(t *testing.T) {
	d := memhost.New(memhost.Config{Width: 16, Height: 8})
	m := surface.NewManager(New(d))
	h, err := m.Create(surface.Request{Caps: surface.Primary})
	if err != nil {
		t.Fatal(err)
	}
	lr, err := m.Lock(h, nil)
	if err != nil {
		t.Fatal(err)
	}
	pixfmt.Store(lr.Pix[3*lr.Pitch+5*4:], 4, 0x00123456)
	if err := m.Unlock(h); err != nil {
		t.Fatal(err)
	}
	if got := d.Pixel(5, 3); got != 0x00123456 {
		t.Errorf("screen pixel = %#x, want 0x123456", got)
	}
	if d.Puts() != 1 {
		t.Errorf("Puts() = %d, want 1", d.Puts())
	}

	off, err := m.Create(surface.Request{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Lock(off, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.Unlock(off); err != nil {
		t.Fatal(err)
	}
	if d.Puts() != 1 {
		t.Errorf("offscreen unlock reached the screen")
	}
}

// TestDestroyFrontRestoresScreen tests that the screen shows the promoted
// member once the front member of a chain is destroyed.
func TestDestroyFrontRestoresScreen(t *testing.T) {
	d := memhost.New(memhost.Config{Width: 8, Height: 4})
	m := surface.NewManager(New(d))
	h, err := m.Create(surface.Request{Caps: surface.Primary, BackBufferCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	attached, err := m.Attached(h)
	if err != nil || len(attached) != 1 {
		t.Fatalf("Attached() = %v, %v", attached, err)
	}
	back := attached[0]

	fill := func(h surface.Handle, v uint32) {
		t.Helper()
		lr, err := m.Lock(h, nil)
		if err != nil {
			t.Fatal(err)
		}
		pixfmt.Store(lr.Pix, 4, v)
		if err := m.Unlock(h); err != nil {
			t.Fatal(err)
		}
	}
	fill(back, 0x00AAAAAA)
	if err := m.Flip(h, surface.Handle{}); err != nil {
		t.Fatal(err)
	}
	if got := d.Pixel(0, 0); got != 0x00AAAAAA {
		t.Fatalf("screen pixel after flip = %#x, want 0xaaaaaa", got)
	}
	fill(h, 0x00555555)
	if got := d.Pixel(0, 0); got != 0x00AAAAAA {
		t.Fatalf("back buffer unlock reached the screen: %#x", got)
	}

	if _, err := m.Destroy(back); err != nil {
		t.Fatal(err)
	}
	if got := d.Pixel(0, 0); got != 0x00555555 {
		t.Errorf("screen pixel = %#x after destroying the front, want 0x555555", got)
	}
}

func TestEmulatedIndexedPrimary(t *testing.T) {
	d := memhost.New(memhost.Config{Width: 8, Height: 4, Formats: []pixfmt.PixelFormat{pixfmt.RGB565}})
	res, err := mode.NewNegotiator(d).Negotiate(8, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	m := surface.NewManager(New(d), surface.WithMode(res))
	h, err := m.Create(surface.Request{Caps: surface.Primary})
	if err != nil {
		t.Fatal(err)
	}
	pal, err := m.CreatePalette(surface.Palette8Bit, []color.RGBA{{}, {R: 0xFF}})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetPalette(h, pal); err != nil {
		t.Fatal(err)
	}
	lr, err := m.Lock(h, nil)
	if err != nil {
		t.Fatal(err)
	}
	lr.Pix[lr.Pitch+2] = 1
	if err := m.Unlock(h); err != nil {
		t.Fatal(err)
	}
	if got := d.Pixel(2, 1); got != 0xF800 {
		t.Errorf("screen pixel = %#x, want red 0xf800", got)
	}

	if err := pal.SetEntries(1, 1, []color.RGBA{{B: 0xFF}}); err != nil {
		t.Fatal(err)
	}
	if err := m.Flush(h); err != nil {
		t.Fatal(err)
	}
	if got := d.Pixel(2, 1); got != 0x001F {
		t.Errorf("screen pixel after palette change = %#x, want blue 0x001f", got)
	}
}
