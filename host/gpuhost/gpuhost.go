// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpuhost presents the screen as a GPU texture.
//
// Images land in an RGBA frame. Draw uploads what changed since the last
// draw and draws the texture through a gpucontext.TextureDrawer, typically
// from a gogpu frame callback:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//		if err := d.Draw(dc.AsTextureDrawer()); err != nil {
//			log.Print(err)
//		}
//	})
package gpuhost

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/host/internal/rgbaframe"
	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/pixfmt"
)

var (
	// ErrClosed is returned by operations on a closed display.
	ErrClosed = errors.New("gpuhost: display closed")

	// ErrNoCreator is returned by Draw when the drawer has no texture
	// creator.
	ErrNoCreator = errors.New("gpuhost: drawer has no texture creator")
)

// TextureFormat is the format of the uploaded texture.
const TextureFormat = gputypes.TextureFormatRGBA8Unorm

// PixelFormat maps a texture format to the pixel format with the same
// memory layout.
func PixelFormat(f gputypes.TextureFormat) (pixfmt.PixelFormat, bool) {
	switch f {
	case gputypes.TextureFormatBGRA8Unorm:
		return pixfmt.XRGB8888, true
	case gputypes.TextureFormatRGBA8Unorm:
		return pixfmt.PixelFormat{BitsPerPixel: 32, Model: pixfmt.RGBModel, RMask: 0x0000FF, GMask: 0x00FF00, BMask: 0xFF0000}, true
	case gputypes.TextureFormatR8Unorm:
		return pixfmt.Indexed8, true
	}
	return pixfmt.PixelFormat{}, false
}

// Config configures New.
type Config struct {
	Width, Height int

	// X and Y place the texture in the drawer.
	X, Y float32
}

type destroyer interface {
	Destroy()
}

// Display is a screen presented as a texture.
type Display struct {
	cfg Config

	mu      sync.Mutex
	frame   []byte
	dirty   pixfmt.Rect
	tex     gpucontext.Texture
	uploads int
	closed  bool
}

var _ host.Display = (*Display)(nil)

// New returns a display of the configured size.
func New(cfg Config) (*Display, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("gpuhost: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	return &Display{cfg: cfg, frame: rgbaframe.New(cfg.Width, cfg.Height)}, nil
}

// Name returns "gpu".
func (d *Display) Name() string { return "gpu" }

// Formats returns the format matching a BGRA8Unorm texture.
func (d *Display) Formats() []pixfmt.PixelFormat {
	f, _ := PixelFormat(gputypes.TextureFormatBGRA8Unorm)
	return []pixfmt.PixelFormat{f}
}

// Size returns the texture size.
func (d *Display) Size() (int, int) { return d.cfg.Width, d.cfg.Height }

// Modes returns the texture size at 32 bpp.
func (d *Display) Modes() []host.Mode {
	return []host.Mode{{Width: d.cfg.Width, Height: d.cfg.Height, BitsPerPixel: 32}}
}

// Pitch returns unpadded rows.
func (d *Display) Pitch(f pixfmt.PixelFormat, width int) int {
	return f.RowBytes(width)
}

// PutImage copies the src part of img into the frame and marks it for
// upload.
func (d *Display) PutImage(img host.Image, src pixfmt.Rect, dstX, dstY int) error {
	if !img.Format.MasksEqual(rgbaframe.Format) {
		return fmt.Errorf("gpuhost: image format %v: %w", img.Format, host.ErrUnsupported)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	r := rgbaframe.Put(d.frame, d.cfg.Width, d.cfg.Height, img, src, dstX, dstY)
	d.dirty = union(d.dirty, r)
	return nil
}

func union(a, b pixfmt.Rect) pixfmt.Rect {
	switch {
	case a.Empty():
		return b
	case b.Empty():
		return a
	}
	return pixfmt.R(min(a.Left, b.Left), min(a.Top, b.Top), max(a.Right, b.Right), max(a.Bottom, b.Bottom))
}

// Draw uploads the changed part of the frame and draws the texture. The
// texture is created on the first draw.
func (d *Display) Draw(dc gpucontext.TextureDrawer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.uploadLocked(dc); err != nil {
		return err
	}
	return dc.DrawTexture(d.tex, d.cfg.X, d.cfg.Y)
}

func (d *Display) uploadLocked(dc gpucontext.TextureDrawer) error {
	w, h := d.cfg.Width, d.cfg.Height
	if d.tex == nil {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNoCreator
		}
		tex, err := creator.NewTextureFromRGBA(w, h, d.frame)
		if err != nil {
			return fmt.Errorf("gpuhost: create %v texture: %w", TextureFormat, err)
		}
		d.tex = tex
		d.dirty = pixfmt.Rect{}
		d.uploads++
		return nil
	}
	if d.dirty.Empty() {
		return nil
	}
	r := d.dirty
	var err error
	if ru, ok := d.tex.(gpucontext.TextureRegionUpdater); ok {
		err = ru.UpdateRegion(r.Left, r.Top, r.Width(), r.Height(), rgbaframe.Region(d.frame, w, r))
	} else if u, ok := d.tex.(gpucontext.TextureUpdater); ok {
		err = u.UpdateData(d.frame)
	} else {
		dlog.Logger().Warn("gpuhost: texture cannot be updated", "texture", fmt.Sprintf("%T", d.tex))
		return nil
	}
	if err != nil {
		return fmt.Errorf("gpuhost: upload %v: %w", r, err)
	}
	d.dirty = pixfmt.Rect{}
	d.uploads++
	return nil
}

// Uploads returns how many texture uploads Draw has made.
func (d *Display) Uploads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploads
}

// Close destroys the texture.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if t, ok := d.tex.(destroyer); ok {
		t.Destroy()
	}
	d.tex = nil
	return nil
}
