// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package x11host implements host.Display on an X server.
//
// The display owns one top-level window sized to the screen (or to
// Config.Width x Config.Height) and draws every image into it. Optional
// capabilities map onto X extensions:
//
//   - host.ColormapHost: writable color maps on PseudoColor visuals
//   - host.ShmHost: MIT-SHM with System V segments (Linux)
//   - host.DirectHost: XFree86-DGA framebuffer mapping (Linux, needs /dev/mem)
//   - host.ModeSetter: window resize, plus XFree86-VidMode switching when
//     Config.Fullscreen is set
package x11host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/shm"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/pixfmt"
)

// putImageHeader is the fixed size of a core PutImage request.
const putImageHeader = 24

// ErrClosed is returned by operations on a closed display.
var ErrClosed = errors.New("x11host: display closed")

// Config configures Open.
type Config struct {
	// Display names the X server. Empty uses $DISPLAY.
	Display string

	// Width and Height size the window. Zero uses the screen size.
	Width, Height int

	// Title is the window title.
	Title string

	// Fullscreen switches the video mode on SetMode when the VidMode
	// extension is present.
	Fullscreen bool

	// OnExpose is called from the event loop when the window needs
	// repainting.
	OnExpose func()
}

// Display is a connection to an X server.
type Display struct {
	cfg    Config
	conn   *xgb.Conn
	setup  *xproto.SetupInfo
	screen *xproto.ScreenInfo
	visual xproto.VisualInfo
	format pixfmt.PixelFormat
	win    xproto.Window
	gc     xproto.Gcontext
	maxReq int

	shmMajor, shmMinor int
	shmOK              bool

	dgaOpcode          byte
	dgaMajor, dgaMinor int

	vidmode bool

	mu       sync.Mutex
	width    int
	height   int
	origW    int
	origH    int
	switched bool
	scratch  []byte
	pending  map[uint16]chan struct{}
	closed   bool
	done     chan struct{}
}

var (
	_ host.Display      = (*Display)(nil)
	_ host.ColormapHost = (*Display)(nil)
	_ host.ShmHost      = (*Display)(nil)
	_ host.DirectHost   = (*Display)(nil)
	_ host.ModeSetter   = (*Display)(nil)
)

// Open connects to the X server and maps the display window.
func Open(cfg Config) (d *Display, err error) {
	conn, err := xgb.NewConnDisplay(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("x11host: connect %q: %w", cfg.Display, err)
	}
	defer func() {
		if err != nil {
			conn.Close()
		}
	}()

	setup := xproto.Setup(conn)
	scr := setup.DefaultScreen(conn)
	vis, ok := rootVisual(scr)
	if !ok {
		return nil, fmt.Errorf("x11host: root visual %d not found", scr.RootVisual)
	}
	bpp := bitsPerPixel(setup, scr.RootDepth)
	format, err := visualFormat(vis, bpp)
	if err != nil {
		return nil, err
	}

	d = &Display{
		cfg:     cfg,
		conn:    conn,
		setup:   setup,
		screen:  scr,
		visual:  vis,
		format:  format,
		maxReq:  int(setup.MaximumRequestLength) * 4,
		width:   cfg.Width,
		height:  cfg.Height,
		pending: make(map[uint16]chan struct{}),
		done:    make(chan struct{}),
	}
	if d.width <= 0 || d.height <= 0 {
		d.width, d.height = int(scr.WidthInPixels), int(scr.HeightInPixels)
	}
	d.origW, d.origH = d.width, d.height

	if err := d.createWindow(); err != nil {
		return nil, err
	}
	d.queryExtensions()
	go d.run()

	if d.shmOK && !d.trySegment() {
		d.shmOK = false
	}
	dlog.Logger().Debug("x11host: opened",
		"display", d.Name(), "format", d.format, "size", fmt.Sprintf("%dx%d", d.width, d.height),
		"shm", d.shmOK, "dga", d.dgaOpcode != 0, "vidmode", d.vidmode)
	return d, nil
}

func (d *Display) createWindow() error {
	win, err := xproto.NewWindowId(d.conn)
	if err != nil {
		return fmt.Errorf("x11host: window id: %w", err)
	}
	err = xproto.CreateWindowChecked(d.conn, d.screen.RootDepth, win, d.screen.Root,
		0, 0, uint16(d.width), uint16(d.height), 0,
		xproto.WindowClassInputOutput, d.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{d.screen.BlackPixel, xproto.EventMaskExposure}).Check()
	if err != nil {
		return fmt.Errorf("x11host: create window: %w", err)
	}
	d.win = win
	if d.cfg.Title != "" {
		xproto.ChangeProperty(d.conn, xproto.PropModeReplace, win, xproto.AtomWmName,
			xproto.AtomString, 8, uint32(len(d.cfg.Title)), []byte(d.cfg.Title))
	}

	gc, err := xproto.NewGcontextId(d.conn)
	if err != nil {
		return fmt.Errorf("x11host: gc id: %w", err)
	}
	if err := xproto.CreateGCChecked(d.conn, gc, xproto.Drawable(win), 0, nil).Check(); err != nil {
		return fmt.Errorf("x11host: create gc: %w", err)
	}
	d.gc = gc
	return xproto.MapWindowChecked(d.conn, win).Check()
}

func (d *Display) queryExtensions() {
	if err := shm.Init(d.conn); err == nil {
		if r, err := shm.QueryVersion(d.conn).Reply(); err == nil {
			d.shmMajor, d.shmMinor = int(r.MajorVersion), int(r.MinorVersion)
			d.shmOK = sysvShm
		}
	}
	d.queryDGA()
	d.vidmode = initVidMode(d.conn)
}

// rootVisual finds the visual of the root window.
func rootVisual(scr *xproto.ScreenInfo) (xproto.VisualInfo, bool) {
	for _, depth := range scr.AllowedDepths {
		if depth.Depth != scr.RootDepth {
			continue
		}
		for _, v := range depth.Visuals {
			if v.VisualId == scr.RootVisual {
				return v, true
			}
		}
	}
	return xproto.VisualInfo{}, false
}

// bitsPerPixel returns the pixmap bits per pixel for depth.
func bitsPerPixel(setup *xproto.SetupInfo, depth byte) int {
	for _, f := range setup.PixmapFormats {
		if f.Depth == depth {
			return int(f.BitsPerPixel)
		}
	}
	return int(depth)
}

// visualFormat describes a visual as a pixel format.
func visualFormat(v xproto.VisualInfo, bpp int) (pixfmt.PixelFormat, error) {
	switch v.Class {
	case xproto.VisualClassTrueColor, xproto.VisualClassDirectColor:
		return pixfmt.PixelFormat{
			BitsPerPixel: bpp,
			Model:        pixfmt.RGBModel,
			RMask:        v.RedMask,
			GMask:        v.GreenMask,
			BMask:        v.BlueMask,
		}, nil
	case xproto.VisualClassPseudoColor, xproto.VisualClassStaticColor,
		xproto.VisualClassGrayScale, xproto.VisualClassStaticGray:
		if bpp == 8 {
			return pixfmt.Indexed8, nil
		}
	}
	return pixfmt.PixelFormat{}, fmt.Errorf("x11host: visual class %d at %d bpp: %w", v.Class, bpp, host.ErrUnsupported)
}

// scanlinePad returns the row alignment in bits for pixmaps of bpp.
func scanlinePad(setup *xproto.SetupInfo, bpp int) int {
	for _, f := range setup.PixmapFormats {
		if int(f.BitsPerPixel) == bpp && f.ScanlinePad > 0 {
			return int(f.ScanlinePad)
		}
	}
	if setup.BitmapFormatScanlinePad > 0 {
		return int(setup.BitmapFormatScanlinePad)
	}
	return 32
}

// rowPitch is the byte size of a width-pixel row padded to padBits.
func rowPitch(bpp, padBits, width int) int {
	bits := (width*bpp + padBits - 1) / padBits * padBits
	return bits / 8
}

// rowsPerRequest is how many pitch-byte rows fit in one request of at
// most maxReq bytes.
func rowsPerRequest(maxReq, pitch int) int {
	if pitch <= 0 {
		return 0
	}
	return (maxReq - putImageHeader) / pitch
}

// Name returns the X display name.
func (d *Display) Name() string {
	if d.cfg.Display == "" {
		return "x11"
	}
	return d.cfg.Display
}

// Formats returns the root visual format.
func (d *Display) Formats() []pixfmt.PixelFormat {
	return []pixfmt.PixelFormat{d.format}
}

// Size returns the window size.
func (d *Display) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Pitch pads rows to the server scanline alignment.
func (d *Display) Pitch(f pixfmt.PixelFormat, width int) int {
	return rowPitch(f.BitsPerPixel, scanlinePad(d.setup, f.BitsPerPixel), width)
}

// PutImage sends the src part of img with core PutImage requests, split
// into row bands that fit the server request size.
func (d *Display) PutImage(img host.Image, src pixfmt.Rect, dstX, dstY int) error {
	if !img.Format.MasksEqual(d.format) {
		return fmt.Errorf("x11host: image format %v does not match visual %v: %w", img.Format, d.format, host.ErrUnsupported)
	}
	src = src.Intersect(pixfmt.Full(img.Width, img.Height))
	if src.Empty() {
		return nil
	}
	w := src.Width()
	pitch := d.Pitch(img.Format, w)
	band := rowsPerRequest(d.maxReq, pitch)
	if band <= 0 {
		return fmt.Errorf("x11host: %d-pixel rows exceed the request size %d", w, d.maxReq)
	}
	bpp := img.Format.BytesPerPixel()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	for y := src.Top; y < src.Bottom; y += band {
		rows := min(band, src.Bottom-y)
		n := rows * pitch
		if cap(d.scratch) < n {
			d.scratch = make([]byte, n)
		}
		buf := d.scratch[:n]
		for r := range rows {
			off := (y+r)*img.Stride + src.Left*bpp
			copy(buf[r*pitch:], img.Pix[off:off+w*bpp])
		}
		xproto.PutImage(d.conn, xproto.ImageFormatZPixmap, xproto.Drawable(d.win), d.gc,
			uint16(w), uint16(rows), int16(dstX), int16(dstY+y-src.Top), 0, d.screen.RootDepth, buf)
	}
	return nil
}

// Modes lists the VidMode mode lines, or the window size alone.
func (d *Display) Modes() []host.Mode {
	if d.vidmode {
		if modes, err := d.modeLines(); err == nil && len(modes) > 0 {
			return modes
		}
	}
	w, h := d.Size()
	return []host.Mode{{Width: w, Height: h, BitsPerPixel: d.format.BitsPerPixel}}
}

// Window returns the display window.
func (d *Display) Window() *Window {
	return &Window{d: d, id: d.win}
}

// run dispatches events until the connection closes.
func (d *Display) run() {
	defer close(d.done)
	for {
		ev, xerr := d.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			d.retireAll()
			return
		}
		if xerr != nil {
			dlog.Logger().Warn("x11host: request failed", "error", xerr)
			d.retire(xerr.SequenceId())
			continue
		}
		switch ev := ev.(type) {
		case shm.CompletionEvent:
			d.retire(ev.Sequence)
		case xproto.ExposeEvent:
			if ev.Count == 0 && d.cfg.OnExpose != nil {
				d.cfg.OnExpose()
			}
		}
	}
}

func (d *Display) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// retire closes the completion channel of the request seq, if any.
func (d *Display) retire(seq uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if done, ok := d.pending[seq]; ok {
		close(done)
		delete(d.pending, seq)
	}
}

func (d *Display) retireAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for seq, done := range d.pending {
		close(done)
		delete(d.pending, seq)
	}
}

// Close restores the video mode, destroys the window and disconnects.
func (d *Display) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	switched := d.switched
	d.mu.Unlock()
	if switched {
		if err := d.RestoreMode(); err != nil {
			dlog.Logger().Warn("x11host: restore mode", "error", err)
		}
	}

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	xproto.FreeGC(d.conn, d.gc)
	xproto.DestroyWindow(d.conn, d.win)
	d.conn.Close()
	<-d.done
	return nil
}
