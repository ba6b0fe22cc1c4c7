// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package xshm implements the shared-memory image transport backend.
//
// The host-format pixels of visible surfaces live in a segment shared with
// the display server. A flush starts an asynchronous put and records its
// completion; the next Lock, flush or release of the surface waits for it
// so the server never reads a half-written frame. Offscreen surfaces use
// plain memory.
//
// Teardown order for a segment: wait for the last put, then detach and
// remove it.
package xshm

import (
	"fmt"

	"github.com/gogpu/ddraw/backend/internal/hostbuf"
	"github.com/gogpu/ddraw/driver"
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/probe"
	"github.com/gogpu/ddraw/surface"
)

// ID is the driver id of the backend.
const ID = "xshm"

// Priority is the selection priority of the backend.
const Priority = 40

// Descriptor returns the driver descriptor of the backend. It probes with
// p, or probe.Default when p is nil.
func Descriptor(p *probe.Prober) driver.Descriptor {
	if p == nil {
		p = probe.Default()
	}
	return driver.Descriptor{
		ID:       ID,
		Name:     "shared-memory image transport",
		Priority: Priority,
		Probe: func(d host.Display) bool {
			return p.Family(d, probe.FamilySharedImage) == probe.SharedImage
		},
		Factory: func(d host.Display) (surface.Backend, error) {
			return New(d)
		},
	}
}

// Backend creates segment-backed storage.
type Backend struct {
	display host.Display
	shm     host.ShmHost
}

// New returns a backend for d, which must offer the shared-memory
// transport.
func New(d host.Display) (*Backend, error) {
	sh, ok := d.(host.ShmHost)
	if !ok {
		return nil, fmt.Errorf("xshm: %s: %w", d.Name(), host.ErrUnsupported)
	}
	if _, _, ok := sh.ShmVersion(); !ok {
		return nil, fmt.Errorf("xshm: %s: transport unusable: %w", d.Name(), host.ErrUnsupported)
	}
	return &Backend{display: d, shm: sh}, nil
}

// Name returns ID.
func (b *Backend) Name() string { return ID }

// Display returns the display.
func (b *Backend) Display() host.Display { return b.display }

// NewStorage puts primary surfaces into a segment and everything else into
// plain memory.
func (b *Backend) NewStorage(req surface.StorageRequest) (surface.Storage, error) {
	hostPitch := b.display.Pitch(req.Host, req.Width)
	if req.Caps&surface.Primary == 0 {
		return hostbuf.NewPlain(req, hostPitch, hostbuf.PutImage(b.display))
	}
	seg, err := b.shm.NewSegment(hostPitch * req.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: shared segment: %v", surface.ErrOutOfMemory, err)
	}
	s := &segStorage{req: req, seg: seg, hostPitch: hostPitch}
	if req.Converter != nil {
		buf, err := hostbuf.Alloc(req.Allocator, req.Format.RowBytes(req.Width), req.Height)
		if err != nil {
			_ = seg.Release()
			return nil, err
		}
		s.buf = buf
	}
	return s, nil
}

// Close does nothing; segments are released with their surfaces.
func (b *Backend) Close() error { return nil }

// segStorage keeps host pixels in a shared segment. Without emulation the
// segment is the surface memory; with it, buf holds the surface pixels and
// the segment the converted shadow.
type segStorage struct {
	req       surface.StorageRequest
	seg       host.Segment
	hostPitch int
	buf       *hostbuf.Buffer
	inflight  <-chan struct{}
}

func (s *segStorage) Pix() []byte {
	if s.buf != nil {
		return s.buf.Pix
	}
	return s.seg.Bytes()
}

func (s *segStorage) Pitch() int {
	if s.buf != nil {
		return s.buf.Pitch
	}
	return s.hostPitch
}

func (s *segStorage) Flush(r pixfmt.Rect, lut []uint32) error {
	s.Wait()
	if s.buf != nil {
		if err := hostbuf.Convert(s.seg.Bytes(), s.hostPitch, s.buf.Pix, s.buf.Pitch,
			s.req.Format, s.req.Host, r, s.req.Converter, lut); err != nil {
			return err
		}
	}
	done, err := s.seg.PutImage(host.Image{
		Pix:    s.seg.Bytes(),
		Stride: s.hostPitch,
		Width:  s.req.Width,
		Height: s.req.Height,
		Format: s.req.Host,
	}, r, r.Left, r.Top)
	if err != nil {
		return fmt.Errorf("xshm: put image: %w", err)
	}
	s.inflight = done
	return nil
}

// Wait blocks until the last put has been read by the server.
func (s *segStorage) Wait() {
	if s.inflight == nil {
		return
	}
	<-s.inflight
	s.inflight = nil
}

func (s *segStorage) Release() error {
	s.Wait()
	err := s.seg.Release()
	if err != nil {
		dlog.Logger().Warn("xshm: release segment", "err", err)
	}
	s.buf.Free()
	return err
}

var (
	_ surface.Backend = (*Backend)(nil)
	_ surface.Storage = (*segStorage)(nil)
)
