// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux

package x11host

import (
	"fmt"

	"github.com/BurntSushi/xgb/shm"
	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/sys/unix"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

const sysvShm = true

// Segment is a System V shared-memory segment attached to the server.
type Segment struct {
	d        *Display
	seg      shm.Seg
	mem      []byte
	released bool
}

// NewSegment creates a private segment, attaches it on both sides and
// marks it for removal once both have detached.
func (d *Display) NewSegment(size int) (host.Segment, error) {
	if d.shmMajor == 0 {
		return nil, host.ErrUnsupported
	}
	if size <= 0 {
		return nil, fmt.Errorf("x11host: invalid segment size %d", size)
	}
	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|0o600)
	if err != nil {
		return nil, fmt.Errorf("x11host: shmget %d bytes: %w", size, err)
	}
	mem, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		_, _ = unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		return nil, fmt.Errorf("x11host: shmat: %w", err)
	}
	seg, err := shm.NewSegId(d.conn)
	if err == nil {
		err = shm.AttachChecked(d.conn, seg, uint32(id), false).Check()
	}
	_, _ = unix.SysvShmCtl(id, unix.IPC_RMID, nil)
	if err != nil {
		_ = unix.SysvShmDetach(mem)
		return nil, fmt.Errorf("x11host: attach segment: %w", err)
	}
	return &Segment{d: d, seg: seg, mem: mem}, nil
}

// Bytes returns the segment memory.
func (s *Segment) Bytes() []byte { return s.mem }

// PutImage sends a shared-memory PutImage asking for a completion event.
// The returned channel is closed when the event, or an error for the
// request, arrives.
func (s *Segment) PutImage(img host.Image, src pixfmt.Rect, dstX, dstY int) (<-chan struct{}, error) {
	d := s.d
	if !img.Format.MasksEqual(d.format) {
		return nil, fmt.Errorf("x11host: image format %v does not match visual %v: %w", img.Format, d.format, host.ErrUnsupported)
	}
	src = src.Intersect(pixfmt.Full(img.Width, img.Height))
	done := make(chan struct{})
	if src.Empty() {
		close(done)
		return done, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if s.released {
		return nil, fmt.Errorf("x11host: segment released")
	}
	if d.closed {
		return nil, ErrClosed
	}
	cookie := shm.PutImage(d.conn, xproto.Drawable(d.win), d.gc,
		uint16(img.Width), uint16(img.Height),
		uint16(src.Left), uint16(src.Top), uint16(src.Width()), uint16(src.Height()),
		int16(dstX), int16(dstY), d.screen.RootDepth, xproto.ImageFormatZPixmap, 1, s.seg, 0)
	d.pending[cookie.Sequence] = done
	return done, nil
}

// Release detaches the segment from the server and this process.
func (s *Segment) Release() error {
	s.d.mu.Lock()
	if s.released {
		s.d.mu.Unlock()
		return fmt.Errorf("x11host: segment already released")
	}
	s.released = true
	closed := s.d.closed
	s.d.mu.Unlock()
	if !closed {
		shm.Detach(s.d.conn, s.seg)
	}
	if err := unix.SysvShmDetach(s.mem); err != nil {
		return fmt.Errorf("x11host: shmdt: %w", err)
	}
	s.mem = nil
	return nil
}
