// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ddraw

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/gogpu/ddraw/backend/dga"
	"github.com/gogpu/ddraw/backend/user"
	"github.com/gogpu/ddraw/backend/xshm"
	"github.com/gogpu/ddraw/driver"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/mode"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/probe"
	"github.com/gogpu/ddraw/surface"
)

// SurfaceDesc describes a surface to create.
type SurfaceDesc = surface.Request

// Palette is an indexed color table shared by reference.
type Palette = surface.Palette

// Clipper restricts blits to a list of rectangles or a window.
type Clipper = surface.Clipper

var builtinOnce sync.Once

// RegisterBuiltins adds the built-in backends to r: plain image transfers,
// direct framebuffer access with and without page flipping, and the
// shared-memory image transport. Their probes share probe.Default.
func RegisterBuiltins(r *driver.Registry) error {
	p := probe.Default()
	var errs []error
	for _, d := range []driver.Descriptor{
		user.Descriptor(),
		dga.Descriptor(p),
		dga.Descriptor2(p),
		xshm.Descriptor(p),
	} {
		if err := r.Register(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func registerDefault() {
	builtinOnce.Do(func() {
		if err := RegisterBuiltins(driver.Default); err != nil {
			Logger().Warn("ddraw: registering built-in backends", "err", err)
		}
	})
}

// DirectDraw owns one active backend on one display, the surfaces created
// through it and the current display mode. It is not safe for concurrent
// use.
type DirectDraw struct {
	display  host.Display
	registry *driver.Registry
	desc     driver.Descriptor
	backend  surface.Backend
	mgr      *surface.Manager
	neg      *mode.Negotiator
	cfg      Config
	modeSet  bool
	closed   bool

	// private holds per-surface data set through Surface4.
	private map[surface.Handle]map[any]any
}

// Open selects a backend for display and prepares it for surface creation.
// The display stays owned by the caller and is not closed by Close.
func Open(display host.Display, opts ...Option) (*DirectDraw, error) {
	if display == nil {
		return nil, errors.New("ddraw: nil display")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.noEnv {
		cfg, err := ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		o.cfg = cfg
	}
	if o.driver != nil {
		o.cfg.Driver = *o.driver
	}
	if o.cfg.Debug {
		enableDebugLogging()
	}

	r := o.registry
	if r == nil {
		registerDefault()
		r = driver.Default
	}
	b, err := r.Resolve(display, o.cfg.Driver)
	if err != nil {
		var nf *driver.NotFoundError
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("ddraw: %w: %w", ErrBackendUnavailable, err)
		}
		return nil, fmt.Errorf("ddraw: open %s: %w", display.Name(), err)
	}
	desc, _ := r.Get(r.Active())

	var mopts []surface.Option
	if o.alloc != nil {
		mopts = append(mopts, surface.WithAllocator(o.alloc))
	}
	neg := mode.NewNegotiator(display)
	neg.NoEmulation = o.cfg.NoEmulation

	dd := &DirectDraw{
		display:  display,
		registry: r,
		desc:     desc,
		backend:  b,
		mgr:      surface.NewManager(b, mopts...),
		neg:      neg,
		cfg:      o.cfg,
		private:  make(map[surface.Handle]map[any]any),
	}
	Logger().Info("ddraw: opened", "display", display.Name(), "driver", desc.ID)
	return dd, nil
}

// Display returns the display dd draws to.
func (dd *DirectDraw) Display() host.Display { return dd.display }

// Driver returns the id of the active backend.
func (dd *DirectDraw) Driver() string { return dd.desc.ID }

// Manager returns the surface manager behind dd.
func (dd *DirectDraw) Manager() *surface.Manager { return dd.mgr }

// SetDisplayMode switches the display to width x height at bpp bits per
// pixel. A depth the display lacks is emulated unless emulation is off.
// The mode cannot change while a primary surface exists.
func (dd *DirectDraw) SetDisplayMode(width, height, bpp int) error {
	return dd.setDisplayMode(width, height, bpp, 0)
}

func (dd *DirectDraw) setDisplayMode(width, height, bpp, rate int) error {
	if dd.closed {
		return ErrClosed
	}
	res, err := dd.neg.Negotiate(width, height, bpp)
	if err != nil {
		return err
	}
	prev := dd.mgr.Mode()
	if err := dd.mgr.SetMode(res); err != nil {
		return fmt.Errorf("ddraw: set display mode: %w", err)
	}
	m := host.Mode{Width: width, Height: height, BitsPerPixel: res.Host.BitsPerPixel, RefreshRate: rate}
	if err := dd.desc.SetModeOn(dd.display, m); err != nil {
		_ = dd.mgr.SetMode(prev)
		return fmt.Errorf("ddraw: set display mode %dx%dx%d: %w", width, height, bpp, err)
	}
	dd.modeSet = true
	Logger().Info("ddraw: display mode set",
		"size", fmt.Sprintf("%dx%d", width, height), "bpp", bpp,
		"native", res.Native.String(), "host", res.Host.String(), "emulated", res.Emulated())
	return nil
}

// RestoreDisplayMode undoes SetDisplayMode. It fails while a primary
// surface exists.
func (dd *DirectDraw) RestoreDisplayMode() error {
	if dd.closed {
		return ErrClosed
	}
	if !dd.modeSet {
		return nil
	}
	if dd.hasPrimary() {
		return fmt.Errorf("ddraw: restore display mode: %w: primary surface exists", surface.ErrIncompatible)
	}
	if err := dd.desc.RestoreMode(dd.display); err != nil {
		return fmt.Errorf("ddraw: restore display mode: %w", err)
	}
	dd.modeSet = false
	return dd.mgr.SetMode(dd.currentMode())
}

// currentMode describes the display as it is, without emulation.
func (dd *DirectDraw) currentMode() mode.Result {
	w, h := dd.display.Size()
	var f pixfmt.PixelFormat
	if formats := dd.display.Formats(); len(formats) > 0 {
		f = formats[0]
	}
	return mode.Result{Width: w, Height: h, Native: f, Host: f}
}

func (dd *DirectDraw) hasPrimary() bool {
	found := false
	dd.mgr.Each(func(s *surface.Surface) bool {
		found = s.Caps().Has(surface.Primary)
		return !found
	})
	return found
}

// EnumDisplayModes calls fn for each mode the display offers, native modes
// first. Emulated depths are skipped when emulation is off.
func (dd *DirectDraw) EnumDisplayModes(flags mode.EnumFlags, fn func(mode.Descriptor) bool) {
	if dd.cfg.NoEmulation {
		flags |= mode.EnumNativeOnly
	}
	mode.EnumerateModes(dd.display, flags, fn)
}

// CreateSurface creates a surface, or a primary flip chain when desc asks
// for back buffers.
func (dd *DirectDraw) CreateSurface(desc SurfaceDesc) (*Surface, error) {
	if dd.closed {
		return nil, ErrClosed
	}
	h, err := dd.mgr.Create(desc)
	if err != nil {
		return nil, err
	}
	return &Surface{dd: dd, h: h}, nil
}

// CreatePalette creates a palette. flags must name exactly one size.
func (dd *DirectDraw) CreatePalette(flags surface.PaletteFlags, entries []color.RGBA) (*Palette, error) {
	if dd.closed {
		return nil, ErrClosed
	}
	return dd.mgr.CreatePalette(flags, entries)
}

// CreateClipper returns an empty clipper.
func (dd *DirectDraw) CreateClipper() *Clipper {
	return surface.NewClipper()
}

// Caps describes the active backend and display.
type Caps struct {
	Driver  string
	Display string

	// Level is the best display-access mechanism the display offers.
	Level probe.Level

	// Formats are the native formats of the display.
	Formats []pixfmt.PixelFormat

	// Mode is the current display mode.
	Mode mode.Result

	// VideoMemory and FreeVideoMemory are zero for backends without
	// display memory.
	VideoMemory, FreeVideoMemory int
}

// Emulated reports whether the current mode emulates its depth.
func (c Caps) Emulated() bool { return c.Mode.Emulated() }

// Caps reports the capabilities of dd.
func (dd *DirectDraw) Caps() Caps {
	c := Caps{
		Driver:  dd.desc.ID,
		Display: dd.display.Name(),
		Level:   probe.Default().Probe(dd.display),
		Formats: dd.display.Formats(),
		Mode:    dd.mgr.Mode(),
	}
	c.VideoMemory, c.FreeVideoMemory = dd.videoMemory()
	return c
}

func (dd *DirectDraw) videoMemory() (total, free int) {
	if mr, ok := dd.backend.(surface.MemoryReporter); ok {
		return mr.VideoMemory()
	}
	return 0, 0
}

// Close destroys every surface, restores the display mode and releases the
// backend. Teardown continues past errors; all of them are returned.
func (dd *DirectDraw) Close() error {
	if dd.closed {
		return nil
	}
	dd.closed = true
	var errs []error
	if err := dd.mgr.Close(); err != nil {
		errs = append(errs, err)
	}
	if dd.modeSet {
		if err := dd.desc.RestoreMode(dd.display); err != nil {
			errs = append(errs, fmt.Errorf("ddraw: restore display mode: %w", err))
		}
		dd.modeSet = false
	}
	if err := dd.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("ddraw: close %s: %w", dd.desc.ID, err))
	}
	dd.private = nil
	if err := errors.Join(errs...); err != nil {
		Logger().Warn("ddraw: close", "err", err)
		return err
	}
	return nil
}
