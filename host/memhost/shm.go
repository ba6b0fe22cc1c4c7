// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package memhost

import (
	"fmt"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

// Segment is an in-memory shared segment.
type Segment struct {
	d        *Display
	mem      []byte
	released bool
}

// ShmVersion reports the configured transport version.
func (d *Display) ShmVersion() (int, int, bool) {
	return d.cfg.ShmMajor, d.cfg.ShmMinor, d.cfg.ShmMajor > 0
}

// NewSegment allocates a segment.
func (d *Display) NewSegment(size int) (host.Segment, error) {
	if d.cfg.ShmMajor <= 0 {
		return nil, host.ErrUnsupported
	}
	if size <= 0 {
		return nil, fmt.Errorf("memhost: invalid segment size %d", size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &Segment{d: d, mem: make([]byte, size)}
	d.segments[s] = true
	return s, nil
}

// Bytes returns the segment memory.
func (s *Segment) Bytes() []byte { return s.mem }

// PutImage copies the segment to the screen. With Config.AsyncShm the
// completion channel stays open until Display.Complete.
func (s *Segment) PutImage(img host.Image, src pixfmt.Rect, dstX, dstY int) (<-chan struct{}, error) {
	d := s.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.released {
		return nil, fmt.Errorf("memhost: segment released")
	}
	if err := d.blitLocked(img, src, dstX, dstY); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	if d.cfg.AsyncShm {
		d.pending = append(d.pending, done)
		return done, nil
	}
	d.puts++
	close(done)
	return done, nil
}

// Release removes the segment.
func (s *Segment) Release() error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.released {
		return fmt.Errorf("memhost: segment already released")
	}
	s.released = true
	delete(s.d.segments, s)
	return nil
}

// Complete retires every in-flight shared-memory transfer and returns how
// many there were.
func (d *Display) Complete() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.pending)
	for _, ch := range d.pending {
		close(ch)
	}
	d.puts += n
	d.pending = nil
	return n
}

// Pending returns the number of in-flight transfers.
func (d *Display) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Segments returns the number of live segments.
func (d *Display) Segments() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.segments)
}

var _ host.ShmHost = (*Display)(nil)
