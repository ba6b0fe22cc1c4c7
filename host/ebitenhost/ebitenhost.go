// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !headless

// Package ebitenhost implements host.Display on an ebiten window.
//
// Images are kept in an RGBA frame that the window shows on every draw.
// The window loop must run on the main goroutine:
//
//	d := ebitenhost.New(ebitenhost.Config{Title: "demo"})
//	go app(d)
//	if err := d.Run(); err != nil {
//		log.Fatal(err)
//	}
package ebitenhost

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/host/internal/rgbaframe"
	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/pixfmt"
)

// ErrClosed is returned by operations on a closed display.
var ErrClosed = errors.New("ebitenhost: display closed")

// DefaultModes are offered when Config.Modes is empty.
var DefaultModes = []host.Mode{
	{Width: 640, Height: 480, BitsPerPixel: 32, RefreshRate: 60},
	{Width: 320, Height: 200, BitsPerPixel: 32, RefreshRate: 60},
	{Width: 320, Height: 240, BitsPerPixel: 32, RefreshRate: 60},
	{Width: 800, Height: 600, BitsPerPixel: 32, RefreshRate: 60},
	{Width: 1024, Height: 768, BitsPerPixel: 32, RefreshRate: 60},
}

// Config configures New.
type Config struct {
	Title string

	// Width and Height size the frame. Zero uses the first mode.
	Width, Height int

	// Scale multiplies the window size.
	Scale int

	Fullscreen bool

	// Modes lists the modes SetMode accepts.
	Modes []host.Mode
}

// Display is an ebiten window showing one frame.
type Display struct {
	cfg   Config
	modes []host.Mode

	mu      sync.RWMutex
	width   int
	height  int
	frame   []byte
	window  *ebiten.Image
	frames  uint64
	closed  bool
	drawn   chan struct{}
	running bool
}

var (
	_ host.Display    = (*Display)(nil)
	_ host.ModeSetter = (*Display)(nil)
)

// New creates a display. Nothing is shown until Run.
func New(cfg Config) *Display {
	modes := cfg.Modes
	if len(modes) == 0 {
		modes = DefaultModes
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		w, h = modes[0].Width, modes[0].Height
	}
	return &Display{
		cfg:    cfg,
		modes:  modes,
		width:  w,
		height: h,
		frame:  rgbaframe.New(w, h),
		drawn:  make(chan struct{}, 1),
	}
}

// Run opens the window and runs the ebiten loop until Close or the window
// is closed. It must be called from the main goroutine.
func (d *Display) Run() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("ebitenhost: already running")
	}
	d.running = true
	w, h := d.width, d.height
	d.mu.Unlock()

	ebiten.SetWindowSize(w*d.cfg.Scale, h*d.cfg.Scale)
	if d.cfg.Title != "" {
		ebiten.SetWindowTitle(d.cfg.Title)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetFullscreen(d.cfg.Fullscreen)
	err := ebiten.RunGame(d)

	d.mu.Lock()
	d.running = false
	d.closed = true
	d.mu.Unlock()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// WaitFrame blocks until the window has drawn a frame.
func (d *Display) WaitFrame() {
	<-d.drawn
}

// Name returns "ebiten".
func (d *Display) Name() string { return "ebiten" }

// Formats returns XRGB8888. Frames are stored as RGBA.
func (d *Display) Formats() []pixfmt.PixelFormat {
	return []pixfmt.PixelFormat{rgbaframe.Format}
}

// Size returns the frame size.
func (d *Display) Size() (int, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.width, d.height
}

// Modes returns the current mode followed by the configured modes.
func (d *Display) Modes() []host.Mode {
	w, h := d.Size()
	out := []host.Mode{{Width: w, Height: h, BitsPerPixel: 32, RefreshRate: 60}}
	for _, m := range d.modes {
		if m.Width != w || m.Height != h {
			out = append(out, m)
		}
	}
	return out
}

// Pitch returns unpadded rows.
func (d *Display) Pitch(f pixfmt.PixelFormat, width int) int {
	return f.RowBytes(width)
}

// PutImage copies the src part of img into the frame, swapping the red and
// blue bytes.
func (d *Display) PutImage(img host.Image, src pixfmt.Rect, dstX, dstY int) error {
	if !img.Format.MasksEqual(rgbaframe.Format) {
		return fmt.Errorf("ebitenhost: image format %v: %w", img.Format, host.ErrUnsupported)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	rgbaframe.Put(d.frame, d.width, d.height, img, src, dstX, dstY)
	return nil
}

// SetMode resizes the frame and the window. Only listed modes are accepted.
func (d *Display) SetMode(m host.Mode) error {
	for _, have := range d.modes {
		if have.Width == m.Width && have.Height == m.Height && (m.BitsPerPixel == 0 || m.BitsPerPixel == have.BitsPerPixel) {
			d.resize(m.Width, m.Height)
			return nil
		}
	}
	return fmt.Errorf("ebitenhost: mode %dx%dx%d: %w", m.Width, m.Height, m.BitsPerPixel, host.ErrUnsupported)
}

// RestoreMode returns to the configured size.
func (d *Display) RestoreMode() error {
	w, h := d.cfg.Width, d.cfg.Height
	if w <= 0 || h <= 0 {
		w, h = d.modes[0].Width, d.modes[0].Height
	}
	d.resize(w, h)
	return nil
}

func (d *Display) resize(w, h int) {
	d.mu.Lock()
	d.width, d.height = w, h
	d.frame = rgbaframe.New(w, h)
	running := d.running
	d.mu.Unlock()
	if running {
		ebiten.SetWindowSize(w*d.cfg.Scale, h*d.cfg.Scale)
	}
	dlog.Logger().Debug("ebitenhost: mode", "width", w, "height", h)
}

// Close ends the window loop.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Frames returns the number of frames drawn.
func (d *Display) Frames() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frames
}

// Update implements ebiten.Game.
func (d *Display) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (d *Display) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	if d.window == nil || d.window.Bounds().Dx() != d.width || d.window.Bounds().Dy() != d.height {
		if d.window != nil {
			d.window.Deallocate()
		}
		d.window = ebiten.NewImage(d.width, d.height)
	}
	d.window.WritePixels(d.frame)
	d.frames++
	d.mu.Unlock()
	screen.DrawImage(d.window, nil)

	select {
	case d.drawn <- struct{}{}:
	default:
	}
}

// Layout implements ebiten.Game.
func (d *Display) Layout(_, _ int) (int, int) {
	return d.Size()
}
