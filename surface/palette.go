// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"image/color"

	"github.com/gogpu/ddraw/convert"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
)

// PaletteFlags select the size of a palette.
type PaletteFlags uint32

// Exactly one size flag must be given to CreatePalette.
const (
	Palette1Bit PaletteFlags = 1 << iota
	Palette2Bit
	Palette4Bit
	Palette8Bit
)

const paletteSizeMask = Palette1Bit | Palette2Bit | Palette4Bit | Palette8Bit

func paletteSize(flags PaletteFlags) (int, error) {
	switch flags & paletteSizeMask {
	case Palette1Bit:
		return 2, nil
	case Palette2Bit:
		return 4, nil
	case Palette4Bit:
		return 16, nil
	case Palette8Bit:
		return 256, nil
	}
	return 0, fmt.Errorf("%w: flags %#x need exactly one size flag", ErrInvalidPalette, uint32(flags))
}

// Palette is a reference-counted indexed color table.
type Palette struct {
	entries [256]color.RGBA
	size    int
	refs    int

	// conv and lut are set only while depth emulation is active.
	conv *convert.Entry
	lut  []uint32

	colormap host.Colormap
}

// CreatePalette creates a palette with one reference. initial may be
// shorter than the palette size. When the display emulates an indexed
// depth, the palette keeps a host-format table for the converter; when the
// host has an indexed visual with writable color maps, a color map is
// created and kept in sync.
func (m *Manager) CreatePalette(flags PaletteFlags, initial []color.RGBA) (*Palette, error) {
	size, err := paletteSize(flags)
	if err != nil {
		return nil, err
	}
	if len(initial) > size {
		return nil, fmt.Errorf("%w: %d entries for a %d-entry palette", ErrInvalidPalette, len(initial), size)
	}
	p := &Palette{size: size, refs: 1}
	copy(p.entries[:], initial)

	if conv := m.mode.Converter; conv != nil && conv.Indexed() {
		p.conv = conv
		p.lut = make([]uint32, 256)
		p.conv.Palette(p.entries[:], p.lut)
	} else if ch, ok := m.display.(host.ColormapHost); ok && m.mode.Host.IsIndexed() {
		cm, err := ch.NewColormap(256)
		if err != nil {
			dlog.Logger().Debug("surface: no host color map", "err", err)
		} else {
			p.colormap = cm
			if err := cm.Store(0, p.entries[:size]); err != nil {
				return nil, fmt.Errorf("surface: store color map: %w", err)
			}
		}
	}
	return p, nil
}

// Size returns the number of entries.
func (p *Palette) Size() int { return p.size }

// Entries returns a copy of count entries starting at start.
func (p *Palette) Entries(start, count int) ([]color.RGBA, error) {
	if err := p.checkRange(start, count); err != nil {
		return nil, err
	}
	out := make([]color.RGBA, count)
	copy(out, p.entries[start:start+count])
	return out, nil
}

func (p *Palette) checkRange(start, count int) error {
	if start < 0 || count < 0 || start+count > p.size || start > 255 {
		return fmt.Errorf("%w: entries %d+%d of %d", ErrInvalidPalette, start, count, p.size)
	}
	return nil
}

// SetEntries replaces count entries starting at start. The host lookup
// table is recomputed when emulation is active and the change is pushed to
// the host color map when one is attached.
func (p *Palette) SetEntries(start, count int, entries []color.RGBA) error {
	if err := p.checkRange(start, count); err != nil {
		return err
	}
	if len(entries) < count {
		return fmt.Errorf("%w: %d entries given, %d needed", ErrInvalidPalette, len(entries), count)
	}
	copy(p.entries[start:start+count], entries[:count])
	if p.lut != nil {
		p.conv.Palette(p.entries[:], p.lut)
	}
	if p.colormap != nil {
		if err := p.colormap.Store(start, p.entries[start:start+count]); err != nil {
			return fmt.Errorf("surface: store color map: %w", err)
		}
	}
	return nil
}

// LUT returns the host-format lookup table, or nil when the display does
// not emulate an indexed depth.
func (p *Palette) LUT() []uint32 {
	return p.lut
}

// Colormap returns the host color map, or nil.
func (p *Palette) Colormap() host.Colormap {
	return p.colormap
}

// syncColormap pushes every entry to the host color map.
func (p *Palette) syncColormap() error {
	if p.colormap == nil {
		return nil
	}
	return p.colormap.Store(0, p.entries[:p.size])
}

// AddRef adds a reference.
func (p *Palette) AddRef() {
	p.refs++
}

// Release drops a reference and frees the host color map with the last
// one. It returns the remaining count.
func (p *Palette) Release() int {
	if p.refs == 0 {
		return 0
	}
	p.refs--
	if p.refs == 0 && p.colormap != nil {
		if err := p.colormap.Free(); err != nil {
			dlog.Logger().Warn("surface: free color map", "err", err)
		}
		p.colormap = nil
	}
	return p.refs
}

// Refs returns the reference count.
func (p *Palette) Refs() int { return p.refs }

// bind points the lookup table at conv, rebuilding it when the converter
// changed since the palette was created.
func (p *Palette) bind(conv *convert.Entry) {
	if p.conv == conv {
		return
	}
	p.conv = conv
	p.lut = nil
	if conv != nil && conv.Indexed() {
		p.lut = make([]uint32, 256)
		conv.Palette(p.entries[:], p.lut)
	}
}
