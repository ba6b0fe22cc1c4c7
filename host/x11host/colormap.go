// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11host

import (
	"fmt"
	"image/color"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/ddraw/host"
)

// Colormap is a writable X color map installed on the display window.
type Colormap struct {
	d    *Display
	id   xproto.Colormap
	size int
}

// NewColormap allocates every cell of a color map for the root visual and
// installs it on the window. Only PseudoColor and GrayScale visuals have
// writable cells.
func (d *Display) NewColormap(size int) (host.Colormap, error) {
	switch d.visual.Class {
	case xproto.VisualClassPseudoColor, xproto.VisualClassGrayScale:
	default:
		return nil, fmt.Errorf("x11host: visual class %d has no writable color map: %w", d.visual.Class, host.ErrUnsupported)
	}
	if size <= 0 || size > int(d.visual.ColormapEntries) {
		return nil, fmt.Errorf("x11host: color map size %d, visual has %d entries", size, d.visual.ColormapEntries)
	}
	id, err := xproto.NewColormapId(d.conn)
	if err != nil {
		return nil, fmt.Errorf("x11host: color map id: %w", err)
	}
	err = xproto.CreateColormapChecked(d.conn, xproto.ColormapAllocAll, id, d.screen.Root, d.screen.RootVisual).Check()
	if err != nil {
		return nil, fmt.Errorf("x11host: create color map: %w", err)
	}
	xproto.ChangeWindowAttributes(d.conn, d.win, xproto.CwColormap, []uint32{uint32(id)})
	return &Colormap{d: d, id: id, size: size}, nil
}

// Store writes entries into the cells starting at start.
func (c *Colormap) Store(start int, entries []color.RGBA) error {
	if start < 0 || start+len(entries) > c.size {
		return fmt.Errorf("x11host: color map range %d+%d exceeds %d", start, len(entries), c.size)
	}
	if c.d.isClosed() {
		return ErrClosed
	}
	items := make([]xproto.Coloritem, len(entries))
	for i, e := range entries {
		items[i] = xproto.Coloritem{
			Pixel: uint32(start + i),
			Red:   uint16(e.R) * 0x101,
			Green: uint16(e.G) * 0x101,
			Blue:  uint16(e.B) * 0x101,
			Flags: xproto.ColorFlagRed | xproto.ColorFlagGreen | xproto.ColorFlagBlue,
		}
	}
	return xproto.StoreColorsChecked(c.d.conn, c.id, items).Check()
}

// Free reinstalls the default color map and frees c.
func (c *Colormap) Free() error {
	if c.d.isClosed() {
		return ErrClosed
	}
	xproto.ChangeWindowAttributes(c.d.conn, c.d.win, xproto.CwColormap, []uint32{uint32(c.d.screen.DefaultColormap)})
	return xproto.FreeColormapChecked(c.d.conn, c.id).Check()
}
