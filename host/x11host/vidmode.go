// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11host

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xf86vidmode"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
)

func initVidMode(c *xgb.Conn) bool {
	if err := xf86vidmode.Init(c); err != nil {
		return false
	}
	_, err := xf86vidmode.QueryVersion(c).Reply()
	return err == nil
}

func (d *Display) screenNum() int {
	for i := range d.setup.Roots {
		if d.setup.Roots[i].Root == d.screen.Root {
			return i
		}
	}
	return 0
}

func (d *Display) allModeLines() ([]xf86vidmode.ModeInfo, error) {
	r, err := xf86vidmode.GetAllModeLines(d.conn, uint16(d.screenNum())).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11host: mode lines: %w", err)
	}
	return r.Modeinfo, nil
}

// modeLines converts the VidMode mode lines. The server lists the current
// mode first.
func (d *Display) modeLines() ([]host.Mode, error) {
	lines, err := d.allModeLines()
	if err != nil {
		return nil, err
	}
	modes := make([]host.Mode, 0, len(lines))
	for _, l := range lines {
		modes = append(modes, host.Mode{
			Width:        int(l.Hdisplay),
			Height:       int(l.Vdisplay),
			BitsPerPixel: d.format.BitsPerPixel,
			RefreshRate:  refreshRate(l),
		})
	}
	return modes, nil
}

// refreshRate derives the vertical refresh in Hz from a mode line. The dot
// clock is in kHz.
func refreshRate(l xf86vidmode.ModeInfo) int {
	if l.Htotal == 0 || l.Vtotal == 0 {
		return 0
	}
	return int((uint64(l.Dotclock)*1000 + uint64(l.Htotal)*uint64(l.Vtotal)/2) / (uint64(l.Htotal) * uint64(l.Vtotal)))
}

func (d *Display) switchTo(w, h, rate int) error {
	lines, err := d.allModeLines()
	if err != nil {
		return err
	}
	for _, l := range lines {
		if int(l.Hdisplay) != w || int(l.Vdisplay) != h {
			continue
		}
		if rate != 0 && refreshRate(l) != rate {
			continue
		}
		return xf86vidmode.SwitchToModeChecked(d.conn, uint32(d.screenNum()), l.Dotclock,
			l.Hdisplay, l.Hsyncstart, l.Hsyncend, l.Htotal, uint16(l.Hskew),
			l.Vdisplay, l.Vsyncstart, l.Vsyncend, l.Vtotal, l.Flags, 0, nil).Check()
	}
	return fmt.Errorf("x11host: no mode line for %dx%d@%d: %w", w, h, rate, host.ErrUnsupported)
}

// SetMode resizes the window to m. With Config.Fullscreen and VidMode the
// video mode is switched too. The color depth is fixed by the root visual.
func (d *Display) SetMode(m host.Mode) error {
	if m.Width <= 0 || m.Height <= 0 || m.Width > 0xFFFF || m.Height > 0xFFFF {
		return fmt.Errorf("x11host: mode %dx%d: %w", m.Width, m.Height, host.ErrUnsupported)
	}
	if m.BitsPerPixel != 0 && m.BitsPerPixel != d.format.BitsPerPixel {
		return fmt.Errorf("x11host: %d bpp on a %d bpp visual: %w", m.BitsPerPixel, d.format.BitsPerPixel, host.ErrUnsupported)
	}
	if d.cfg.Fullscreen && d.vidmode {
		if err := d.switchTo(m.Width, m.Height, m.RefreshRate); err != nil {
			return err
		}
		d.mu.Lock()
		d.switched = true
		d.mu.Unlock()
	}
	return d.resize(m.Width, m.Height)
}

// RestoreMode returns to the size the display was opened with.
func (d *Display) RestoreMode() error {
	d.mu.Lock()
	switched := d.switched
	d.switched = false
	w, h := d.origW, d.origH
	d.mu.Unlock()
	if switched {
		if err := d.switchTo(int(d.screen.WidthInPixels), int(d.screen.HeightInPixels), 0); err != nil {
			dlog.Logger().Warn("x11host: switch back", "error", err)
		}
	}
	return d.resize(w, h)
}

func (d *Display) resize(w, h int) error {
	if d.isClosed() {
		return ErrClosed
	}
	err := xproto.ConfigureWindowChecked(d.conn, d.win,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight, []uint32{uint32(w), uint32(h)}).Check()
	if err != nil {
		return fmt.Errorf("x11host: resize to %dx%d: %w", w, h, err)
	}
	d.mu.Lock()
	d.width, d.height = w, h
	d.mu.Unlock()
	return nil
}
