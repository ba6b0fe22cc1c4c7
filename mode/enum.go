// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mode

import (
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

// EnumFlags modify mode enumeration.
type EnumFlags uint32

const (
	// EnumRefreshRates reports modes that differ only in refresh rate
	// separately. Without it the rate is reported as 0 and duplicates are
	// folded.
	EnumRefreshRates EnumFlags = 1 << iota

	// EnumNativeOnly skips emulated depths.
	EnumNativeOnly
)

// Descriptor describes one enumerated mode.
type Descriptor struct {
	Width, Height int
	Pitch         int
	Format        pixfmt.PixelFormat
	RefreshRate   int
	Emulated      bool
}

// EnumerateModes calls fn for every mode the display offers, native modes
// first and then each emulated depth on top of them. Enumeration stops as
// soon as fn returns false.
func EnumerateModes(d host.Display, flags EnumFlags, fn func(Descriptor) bool) {
	n := NewNegotiator(d)
	n.NoEmulation = flags&EnumNativeOnly != 0

	type key struct {
		w, h, rate int
		f          pixfmt.PixelFormat
	}
	seen := make(map[key]bool)
	emit := func(desc Descriptor) bool {
		if flags&EnumRefreshRates == 0 {
			desc.RefreshRate = 0
		}
		k := key{desc.Width, desc.Height, desc.RefreshRate, desc.Format}
		if seen[k] {
			return true
		}
		seen[k] = true
		return fn(desc)
	}

	modes := d.Modes()
	formats := d.Formats()
	for _, m := range modes {
		for _, f := range formats {
			if f.BitsPerPixel != m.BitsPerPixel || f.Model == pixfmt.ZBufferModel {
				continue
			}
			if !emit(Descriptor{
				Width:       m.Width,
				Height:      m.Height,
				Pitch:       d.Pitch(f, m.Width),
				Format:      f,
				RefreshRate: m.RefreshRate,
			}) {
				return
			}
		}
	}
	if n.NoEmulation {
		return
	}
	for _, m := range modes {
		for _, depth := range []int{8, 15, 16, 24, 32} {
			res, err := n.Negotiate(m.Width, m.Height, depth)
			if err != nil || !res.Emulated() {
				continue
			}
			if !emit(Descriptor{
				Width:       m.Width,
				Height:      m.Height,
				Pitch:       res.Native.RowBytes(m.Width),
				Format:      res.Native,
				RefreshRate: m.RefreshRate,
				Emulated:    true,
			}) {
				return
			}
		}
	}
}
