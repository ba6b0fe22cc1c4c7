// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package mode negotiates display modes and pixel formats with the host.
//
// Negotiate first looks for a host format of the requested depth. When the
// host has none, it walks convert.Table for an entry whose host side the
// display supports and whose target side has the requested depth, and
// returns that entry as the converter for depth emulation.
package mode

import (
	"errors"
	"fmt"

	"github.com/gogpu/ddraw/convert"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/pixfmt"
)

// ErrUnsupportedMode is returned when neither a native format nor an
// emulation entry matches the request.
var ErrUnsupportedMode = errors.New("mode: unsupported mode")

// Result is the outcome of a negotiation.
type Result struct {
	Width, Height int

	// Native is the format surfaces are created in, the one the
	// application sees.
	Native pixfmt.PixelFormat

	// Host is the format pixels are handed to the display in.
	Host pixfmt.PixelFormat

	// Converter is non-nil when Native is emulated on top of Host.
	Converter *convert.Entry

	// Pitch is the row stride the display uses for Host at Width.
	Pitch int
}

// Emulated reports whether the result needs depth emulation.
func (r Result) Emulated() bool {
	return r.Converter != nil
}

// Negotiator matches requests against the formats of one display.
type Negotiator struct {
	display host.Display
	table   []*convert.Entry

	// NoEmulation restricts negotiation to native formats.
	NoEmulation bool
}

// NewNegotiator returns a negotiator for d using convert.Table.
func NewNegotiator(d host.Display) *Negotiator {
	return &Negotiator{display: d, table: convert.Table}
}

// WithTable returns a copy of n that scans table instead of convert.Table.
func (n *Negotiator) WithTable(table []*convert.Entry) *Negotiator {
	c := *n
	c.table = table
	return &c
}

func (n *Negotiator) result(width, height int, native, host pixfmt.PixelFormat, conv *convert.Entry) Result {
	return Result{
		Width:     width,
		Height:    height,
		Native:    native,
		Host:      host,
		Converter: conv,
		Pitch:     n.display.Pitch(host, width),
	}
}

// matchesDepth reports whether f satisfies a depth request. Depth 8 takes
// any indexed format and 32 takes any 32-bit RGB container. Other depths
// need both the color depth and the container size: 15 is RGB555 in 16
// bits, 16 is RGB565 and 24 is packed 3-byte RGB, so XRGB8888 does not
// answer a request for 24.
func matchesDepth(f pixfmt.PixelFormat, depth int) bool {
	switch {
	case depth == 8:
		return f.IsIndexed()
	case f.Model != pixfmt.RGBModel && f.Model != pixfmt.RGBAlphaModel:
		return false
	case depth == 32:
		return f.BitsPerPixel == 32
	}
	return f.Depth() == depth && f.BytesPerPixel() == (depth+7)/8
}

// Negotiate maps a requested width, height and depth to formats.
func (n *Negotiator) Negotiate(width, height, depth int) (Result, error) {
	if width <= 0 || height <= 0 {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrUnsupportedMode, width, height)
	}
	formats := n.display.Formats()
	for _, f := range formats {
		if matchesDepth(f, depth) {
			dlog.Logger().Debug("mode: native format", "depth", depth, "format", f.String())
			return n.result(width, height, f, f, nil), nil
		}
	}
	if n.NoEmulation {
		return Result{}, fmt.Errorf("%w: %d bpp not native", ErrUnsupportedMode, depth)
	}
	for _, e := range n.table {
		if !matchesDepth(e.Target, depth) {
			continue
		}
		for _, f := range formats {
			if !f.MasksEqual(e.Host) {
				continue
			}
			target := e.Target
			if depth == 8 {
				target = pixfmt.Indexed8
			}
			dlog.Logger().Debug("mode: emulating depth", "depth", depth, "entry", e.Name)
			return n.result(width, height, target, f, e), nil
		}
	}
	return Result{}, fmt.Errorf("%w: %dx%dx%d", ErrUnsupportedMode, width, height, depth)
}

// NegotiateFormat maps a request for an exact pixel format. The format is
// native when the host lists a format with the same masks.
func (n *Negotiator) NegotiateFormat(width, height int, pf pixfmt.PixelFormat) (Result, error) {
	if width <= 0 || height <= 0 || !pf.Valid() {
		return Result{}, fmt.Errorf("%w: %dx%d %v", ErrUnsupportedMode, width, height, pf)
	}
	formats := n.display.Formats()
	for _, f := range formats {
		if f.MasksEqual(pf) && f.IsIndexed() == pf.IsIndexed() {
			return n.result(width, height, pf, f, nil), nil
		}
	}
	if !n.NoEmulation {
		for _, e := range n.table {
			if !e.Target.MasksEqual(pf) {
				continue
			}
			for _, f := range formats {
				if f.MasksEqual(e.Host) {
					return n.result(width, height, pf, f, e), nil
				}
			}
		}
	}
	return Result{}, fmt.Errorf("%w: %v", ErrUnsupportedMode, pf)
}
