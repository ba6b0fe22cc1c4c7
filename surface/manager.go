// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/gogpu/ddraw/convert"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/mode"
	"github.com/gogpu/ddraw/pixfmt"
)

// Request describes a surface to create.
type Request struct {
	// Width and Height are ignored for primary surfaces, which take the
	// display mode size.
	Width, Height int

	// Format defaults to the display mode format when zero.
	Format pixfmt.PixelFormat

	Caps Caps

	// BackBufferCount creates a flip chain of 1+BackBufferCount members.
	BackBufferCount int
}

type slot struct {
	gen uint32
	s   *Surface
}

// Manager owns every surface of one backend. It is not safe for
// concurrent use.
type Manager struct {
	backend Backend
	display host.Display
	alloc   Allocator
	mode    mode.Result

	slots []slot
	free  []uint32
	order []Handle

	blackLUT map[*convert.Entry][]uint32
}

// Option configures a Manager.
type Option func(*Manager)

// WithAllocator sets the allocator handed to the backend.
func WithAllocator(a Allocator) Option {
	return func(m *Manager) {
		if a != nil {
			m.alloc = a
		}
	}
}

// WithMode sets the initial display mode.
func WithMode(res mode.Result) Option {
	return func(m *Manager) {
		m.mode = res
	}
}

// NewManager returns a manager creating storage through b. Without
// WithMode the display's preferred format at its current size is used.
func NewManager(b Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:  b,
		display:  b.Display(),
		blackLUT: make(map[*convert.Entry][]uint32),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.alloc == nil {
		m.alloc = DefaultAllocator()
	}
	if m.mode.Width == 0 {
		w, h := m.display.Size()
		var f pixfmt.PixelFormat
		if formats := m.display.Formats(); len(formats) > 0 {
			f = formats[0]
		}
		m.mode = mode.Result{Width: w, Height: h, Native: f, Host: f}
	}
	return m
}

// Backend returns the backend of m.
func (m *Manager) Backend() Backend { return m.backend }

// Allocator returns the allocator of m.
func (m *Manager) Allocator() Allocator { return m.alloc }

// Mode returns the current display mode.
func (m *Manager) Mode() mode.Result { return m.mode }

// SetMode switches the display mode used for primary surfaces. It fails
// while a primary surface exists.
func (m *Manager) SetMode(res mode.Result) error {
	if p := m.primary(); p != nil {
		return fmt.Errorf("%w: primary surface %v exists", ErrIncompatible, p.handle)
	}
	m.mode = res
	return nil
}

func (m *Manager) primary() *Surface {
	for _, sl := range m.slots {
		if sl.s != nil && sl.s.caps&Primary != 0 {
			return sl.s
		}
	}
	return nil
}

// Get returns the surface addressed by h.
func (m *Manager) Get(h Handle) (*Surface, error) {
	if h.gen == 0 || int(h.index) >= len(m.slots) {
		return nil, ErrInvalidHandle
	}
	sl := m.slots[h.index]
	if sl.s == nil || sl.gen != h.gen {
		return nil, ErrInvalidHandle
	}
	return sl.s, nil
}

func (m *Manager) insert(s *Surface) Handle {
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		idx = uint32(len(m.slots))
		m.slots = append(m.slots, slot{})
	}
	sl := &m.slots[idx]
	sl.gen++
	sl.s = s
	s.handle = Handle{index: idx, gen: sl.gen}
	m.order = append(m.order, s.handle)
	return s.handle
}

func (m *Manager) remove(s *Surface) {
	sl := &m.slots[s.handle.index]
	sl.s = nil
	m.free = append(m.free, s.handle.index)
	for i, h := range m.order {
		if h == s.handle {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Create creates a surface, and a flip chain of back buffers when
// req.BackBufferCount is positive. It returns the handle of the first
// member, tagged front.
func (m *Manager) Create(req Request) (Handle, error) {
	caps := req.Caps &^ (Front | Back | Visible | Complex)
	w, h := req.Width, req.Height
	format := req.Format
	hostFormat := format
	var conv *convert.Entry

	if caps&Primary != 0 {
		if p := m.primary(); p != nil {
			return Handle{}, opErr("create", Handle{}, fmt.Errorf("%w: primary surface %v exists", ErrIncompatible, p.handle))
		}
		w, h = m.mode.Width, m.mode.Height
		format, hostFormat, conv = m.mode.Native, m.mode.Host, m.mode.Converter
		caps |= Front | Visible
	} else {
		if format == (pixfmt.PixelFormat{}) {
			format = m.mode.Native
		}
		hostFormat = format
		caps |= Offscreen
	}
	if w <= 0 || h <= 0 {
		return Handle{}, opErr("create", Handle{}, fmt.Errorf("%w: size %dx%d", ErrIncompatible, w, h))
	}
	if !format.Valid() {
		return Handle{}, opErr("create", Handle{}, fmt.Errorf("%w: %v", pixfmt.ErrUnsupportedBpp, format))
	}
	if format.HasAlpha() {
		caps |= HasAlpha
	}
	if format.Model == pixfmt.ZBufferModel {
		caps |= HasZBuffer
	}
	if req.BackBufferCount < 0 {
		return Handle{}, opErr("create", Handle{}, fmt.Errorf("%w: %d back buffers", ErrIncompatible, req.BackBufferCount))
	}
	if req.BackBufferCount > 0 {
		caps |= Flippable
	}

	n := 1 + req.BackBufferCount
	members := make([]*Surface, 0, n)
	for i := 0; i < n; i++ {
		mc := caps
		if i > 0 {
			mc &^= Visible
		} else if n > 1 {
			mc |= Complex
		}
		s, err := m.newSurface(w, h, format, hostFormat, conv, mc, i)
		if err != nil {
			for j := len(members) - 1; j >= 0; j-- {
				m.releaseStorage(members[j])
				m.remove(members[j])
			}
			return Handle{}, opErr("create", Handle{}, err)
		}
		members = append(members, s)
	}
	if n > 1 {
		c := &FlipChain{owner: members[0], members: members}
		for _, s := range members {
			s.chain = c
		}
		c.retag()
	}
	dlog.Logger().Debug("surface: created",
		"handle", members[0].handle.String(), "size", fmt.Sprintf("%dx%d", w, h),
		"format", format.String(), "caps", members[0].caps.String(), "members", n,
		"pitch", members[0].storage.Pitch(), "emulated", conv != nil)
	return members[0].handle, nil
}

func (m *Manager) newSurface(w, h int, format, hostFormat pixfmt.PixelFormat, conv *convert.Entry, caps Caps, page int) (*Surface, error) {
	st, err := m.backend.NewStorage(StorageRequest{
		Width:     w,
		Height:    h,
		Format:    format,
		Host:      hostFormat,
		Converter: conv,
		Caps:      caps,
		Page:      page,
		Allocator: m.alloc,
	})
	if err != nil {
		return nil, err
	}
	s := &Surface{
		format:  format,
		width:   w,
		height:  h,
		caps:    caps,
		storage: st,
		refs:    1,
		host:    hostFormat,
		conv:    conv,
	}
	m.insert(s)
	return s, nil
}

// Lock returns the memory of r, or of the whole surface when r is nil. The
// returned slice starts at the top-left pixel of r; rows are Pitch bytes
// apart. Lock waits for a transfer to the display still reading the
// surface.
func (m *Manager) Lock(h Handle, r *pixfmt.Rect) (LockedRect, error) {
	s, err := m.Get(h)
	if err != nil {
		return LockedRect{}, opErr("lock", h, err)
	}
	if s.locked {
		return LockedRect{}, opErr("lock", h, ErrLocked)
	}
	rect, err := pixfmt.Resolve(r, s.width, s.height)
	if err != nil {
		return LockedRect{}, opErr("lock", h, err)
	}
	if rect.Left > rect.Right || rect.Top > rect.Bottom || !rect.In(pixfmt.Full(s.width, s.height)) {
		return LockedRect{}, opErr("lock", h, fmt.Errorf("%w: %v outside %dx%d", pixfmt.ErrInvalidRect, rect, s.width, s.height))
	}
	s.storage.Wait()

	pitch := s.storage.Pitch()
	off := rect.Top*pitch + rect.Left*s.format.BytesPerPixel()
	s.locked = true
	s.lockRect = rect
	return LockedRect{
		Pix:    s.storage.Pix()[off:],
		Pitch:  pitch,
		Rect:   rect,
		Format: s.format,
	}, nil
}

// Unlock ends a Lock. A visible surface is flushed to the display.
func (m *Manager) Unlock(h Handle) error {
	s, err := m.Get(h)
	if err != nil {
		return opErr("unlock", h, err)
	}
	if !s.locked {
		return opErr("unlock", h, ErrNotLocked)
	}
	s.locked = false
	if s.visible() {
		if err := m.flush(s, s.lockRect); err != nil {
			return opErr("unlock", h, err)
		}
	}
	return nil
}

// Flush pushes the whole surface to the display when it is visible.
func (m *Manager) Flush(h Handle) error {
	s, err := m.Get(h)
	if err != nil {
		return opErr("flush", h, err)
	}
	if s.locked {
		return opErr("flush", h, ErrLocked)
	}
	if !s.visible() {
		return nil
	}
	if err := m.flush(s, pixfmt.Full(s.width, s.height)); err != nil {
		return opErr("flush", h, err)
	}
	return nil
}

func (m *Manager) flush(s *Surface, r pixfmt.Rect) error {
	if r.Empty() {
		return nil
	}
	if err := s.storage.Flush(r, m.lut(s)); err != nil {
		return err
	}
	if s.palette != nil {
		return s.palette.syncColormap()
	}
	return nil
}

// lut returns the host palette table for an indexed emulated surface. A
// surface without a palette shows black.
func (m *Manager) lut(s *Surface) []uint32 {
	if s.conv == nil || !s.conv.Indexed() {
		return nil
	}
	if s.palette != nil {
		s.palette.bind(s.conv)
		return s.palette.lut
	}
	lut, ok := m.blackLUT[s.conv]
	if !ok {
		lut = make([]uint32, 256)
		s.conv.Palette(make([]color.RGBA, 256), lut)
		m.blackLUT[s.conv] = lut
	}
	return lut
}

// AddRef adds a reference to the surface and returns the new count.
func (m *Manager) AddRef(h Handle) (int, error) {
	s, err := m.Get(h)
	if err != nil {
		return 0, opErr("addref", h, err)
	}
	s.refs++
	return s.refs, nil
}

// Destroy drops a reference. With the last one the surface leaves its
// chain, releases its palette and clipper, and its storage is freed.
// Destroying the surface that created a chain destroys the chain.
func (m *Manager) Destroy(h Handle) (int, error) {
	s, err := m.Get(h)
	if err != nil {
		return 0, opErr("destroy", h, err)
	}
	if s.refs == 1 && s.locked {
		return 1, opErr("destroy", h, ErrLocked)
	}
	return m.release(s), nil
}

func (m *Manager) release(s *Surface) int {
	s.refs--
	if s.refs > 0 {
		return s.refs
	}
	m.teardown(s)
	return 0
}

func (m *Manager) teardown(s *Surface) {
	if c := s.chain; c != nil {
		if c.owner == s {
			m.dissolve(c)
		} else if front := c.remove(s); front != nil {
			if err := m.show(front, s); err != nil {
				dlog.Logger().Warn("surface: show promoted front", "handle", front.handle.String(), "err", err)
			}
		}
	}
	if s.palette != nil {
		s.palette.Release()
		s.palette = nil
	}
	if s.clipper != nil {
		s.clipper.Release()
		s.clipper = nil
	}
	m.releaseStorage(s)
	m.remove(s)
	dlog.Logger().Debug("surface: destroyed", "handle", s.handle.String())
}

func (m *Manager) releaseStorage(s *Surface) {
	s.storage.Wait()
	if err := s.storage.Release(); err != nil {
		dlog.Logger().Warn("surface: release storage", "handle", s.handle.String(), "err", err)
	}
}

// Close destroys every surface in reverse creation order regardless of
// reference counts.
func (m *Manager) Close() error {
	var errs []error
	for len(m.order) > 0 {
		h := m.order[len(m.order)-1]
		s, err := m.Get(h)
		if err != nil {
			errs = append(errs, err)
			m.order = m.order[:len(m.order)-1]
			continue
		}
		if c := s.chain; c != nil && c.owner != s {
			c.remove(s)
		}
		s.refs = 1
		s.locked = false
		m.release(s)
	}
	return errors.Join(errs...)
}

// Each calls fn for every live surface in creation order until fn returns
// false.
func (m *Manager) Each(fn func(*Surface) bool) {
	handles := append([]Handle(nil), m.order...)
	for _, h := range handles {
		s, err := m.Get(h)
		if err != nil {
			continue
		}
		if !fn(s) {
			return
		}
	}
}

// Len returns the number of live surfaces.
func (m *Manager) Len() int { return len(m.order) }

// SetPalette attaches p to the surface, replacing the previous palette.
// nil detaches.
func (m *Manager) SetPalette(h Handle, p *Palette) error {
	s, err := m.Get(h)
	if err != nil {
		return opErr("setpalette", h, err)
	}
	if p != nil && !s.format.IsIndexed() {
		return opErr("setpalette", h, fmt.Errorf("%w: %v is not indexed", ErrIncompatible, s.format))
	}
	if p != nil {
		p.AddRef()
	}
	if s.palette != nil {
		s.palette.Release()
	}
	s.palette = p
	if p == nil || !s.visible() || s.locked {
		return nil
	}
	if err := m.flush(s, pixfmt.Full(s.width, s.height)); err != nil {
		return opErr("setpalette", h, err)
	}
	return nil
}

// SetClipper attaches c to the surface. nil detaches.
func (m *Manager) SetClipper(h Handle, c *Clipper) error {
	s, err := m.Get(h)
	if err != nil {
		return opErr("setclipper", h, err)
	}
	if c != nil {
		c.AddRef()
	}
	if s.clipper != nil {
		s.clipper.Release()
	}
	s.clipper = c
	return nil
}

// SetColorKey sets or, with a nil key, clears a color key.
func (m *Manager) SetColorKey(h Handle, kind KeyKind, key *ColorKey) error {
	s, err := m.Get(h)
	if err != nil {
		return opErr("setcolorkey", h, err)
	}
	var k *ColorKey
	if key != nil {
		c := *key
		k = &c
	}
	switch kind {
	case SrcKey:
		s.srcKey = k
	case DstKey:
		s.dstKey = k
	default:
		return opErr("setcolorkey", h, fmt.Errorf("surface: unknown color key kind %d", kind))
	}
	return nil
}

// SetMemory replaces the storage of an offscreen surface with client
// memory. The format must stay the same.
func (m *Manager) SetMemory(h Handle, pix []byte, pitch, width, height int, format pixfmt.PixelFormat) error {
	s, err := m.Get(h)
	if err != nil {
		return opErr("setmemory", h, err)
	}
	switch {
	case s.locked:
		return opErr("setmemory", h, ErrLocked)
	case s.caps&Primary != 0 || s.chain != nil:
		return opErr("setmemory", h, fmt.Errorf("%w: primary or chained surface", ErrIncompatible))
	case format != (pixfmt.PixelFormat{}) && !format.Equal(s.format):
		return opErr("setmemory", h, fmt.Errorf("%w: format %v differs from %v", ErrIncompatible, format, s.format))
	case width <= 0 || height <= 0 || pitch < s.format.RowBytes(width) ||
		len(pix) < pitch*(height-1)+s.format.RowBytes(width):
		return opErr("setmemory", h, fmt.Errorf("%w: %d bytes for %dx%d pitch %d", ErrIncompatible, len(pix), width, height, pitch))
	}
	m.releaseStorage(s)
	s.storage = &clientStorage{pix: pix, pitch: pitch}
	s.width, s.height = width, height
	return nil
}

// clientStorage wraps memory owned by the caller.
type clientStorage struct {
	pix   []byte
	pitch int
}

func (c *clientStorage) Pix() []byte                       { return c.pix }
func (c *clientStorage) Pitch() int                        { return c.pitch }
func (c *clientStorage) Flush(pixfmt.Rect, []uint32) error { return nil }
func (c *clientStorage) Wait()                             {}
func (c *clientStorage) Release() error                    { return nil }
