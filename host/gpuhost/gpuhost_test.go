// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpuhost

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

type fakeTexture struct {
	w, h      int
	data      []byte
	regions   [][4]int
	destroyed bool
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }
func (t *fakeTexture) Destroy()    { t.destroyed = true }

func (t *fakeTexture) UpdateRegion(x, y, w, h int, data []byte) error {
	if len(data) != w*h*4 {
		return errors.New("bad region size")
	}
	t.regions = append(t.regions, [4]int{x, y, w, h})
	for row := range h {
		copy(t.data[((y+row)*t.w+x)*4:], data[row*w*4:(row+1)*w*4])
	}
	return nil
}

type fakeDrawer struct {
	tex   *fakeTexture
	draws int
}

func (d *fakeDrawer) DrawTexture(gpucontext.Texture, float32, float32) error {
	d.draws++
	return nil
}

func (d *fakeDrawer) TextureCreator() gpucontext.TextureCreator { return d }

func (d *fakeDrawer) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	d.tex = &fakeTexture{w: w, h: h, data: append([]byte(nil), data...)}
	return d.tex, nil
}

func TestPixelFormat(t *testing.T) {
	tests := []struct {
		tf   gputypes.TextureFormat
		want pixfmt.PixelFormat
		ok   bool
	}{
		{gputypes.TextureFormatBGRA8Unorm, pixfmt.XRGB8888, true},
		{gputypes.TextureFormatR8Unorm, pixfmt.Indexed8, true},
		{gputypes.TextureFormatDepth32Float, pixfmt.PixelFormat{}, false},
	}
	for _, tt := range tests {
		got, ok := PixelFormat(tt.tf)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("PixelFormat(%v) = %v, %v", tt.tf, got, ok)
		}
	}
	rgba, _ := PixelFormat(TextureFormat)
	if r, g, b, _ := rgba.Unpack(0x00332211); r != 0x11 || g != 0x22 || b != 0x33 {
		t.Errorf("RGBA8Unorm unpack = %#x %#x %#x", r, g, b)
	}
}

func TestDrawUploadsDirtyRegion(t *testing.T) {
	d, err := New(Config{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	dc := &fakeDrawer{}
	if err := d.Draw(dc); err != nil {
		t.Fatal(err)
	}
	if dc.tex == nil || d.Uploads() != 1 || dc.draws != 1 {
		t.Fatalf("first draw: texture %v, %d uploads, %d draws", dc.tex, d.Uploads(), dc.draws)
	}

	img := host.Image{Pix: make([]byte, 4*4), Stride: 16, Width: 4, Height: 1, Format: pixfmt.XRGB8888}
	pixfmt.Store(img.Pix, 4, 0x00FF0000)
	if err := d.PutImage(img, pixfmt.R(0, 0, 2, 1), 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := d.Draw(dc); err != nil {
		t.Fatal(err)
	}
	if len(dc.tex.regions) != 1 || dc.tex.regions[0] != [4]int{1, 2, 2, 1} {
		t.Fatalf("regions = %v, want one 2x1 region at (1,2)", dc.tex.regions)
	}
	if px := dc.tex.data[(2*4+1)*4:]; px[0] != 0xFF || px[3] != 0xFF {
		t.Errorf("texture pixel = %v, want opaque red", px[:4])
	}

	if err := d.Draw(dc); err != nil {
		t.Fatal(err)
	}
	if d.Uploads() != 2 {
		t.Errorf("clean draw uploaded: %d uploads", d.Uploads())
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if !dc.tex.destroyed {
		t.Error("texture not destroyed on Close")
	}
	if err := d.Draw(dc); !errors.Is(err, ErrClosed) {
		t.Errorf("Draw after Close = %v, want ErrClosed", err)
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New with zero size succeeded")
	}
}
