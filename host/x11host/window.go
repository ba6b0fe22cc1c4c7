// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11host

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
)

// Window is an X window used as a clipper drawable.
type Window struct {
	d  *Display
	id xproto.Window
}

var _ host.Drawable = (*Window)(nil)

// Drawable wraps an existing window of the same connection.
func (d *Display) Drawable(id uint32) *Window {
	return &Window{d: d, id: xproto.Window(id)}
}

// ID returns the window id.
func (w *Window) ID() uint32 { return uint32(w.id) }

// ClientToScreen translates window coordinates to root coordinates.
// On failure the input is returned unchanged.
func (w *Window) ClientToScreen(x, y int) (int, int) {
	r, err := xproto.TranslateCoordinates(w.d.conn, w.id, w.d.screen.Root, int16(x), int16(y)).Reply()
	if err != nil {
		dlog.Logger().Debug("x11host: translate coordinates", "window", w.id, "error", err)
		return x, y
	}
	return int(r.DstX), int(r.DstY)
}

// Size returns the window geometry.
func (w *Window) Size() (int, int) {
	r, err := xproto.GetGeometry(w.d.conn, xproto.Drawable(w.id)).Reply()
	if err != nil {
		dlog.Logger().Debug("x11host: get geometry", "window", w.id, "error", err)
		return 0, 0
	}
	return int(r.Width), int(r.Height)
}
