// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux

package x11host

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/xgb"
	"golang.org/x/sys/unix"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

const dgaMapping = true

// Framebuffer is the DGA-mapped video memory.
type Framebuffer struct {
	d      *Display
	mem    []byte
	pitch  int
	w, h   int
	pages  int
	mu     sync.Mutex
	mapped bool
}

// MapFramebuffer maps the linear framebuffer from /dev/mem and switches
// the screen to direct graphics. Banked framebuffers are not supported.
func (d *Display) MapFramebuffer() (host.Framebuffer, error) {
	reply, err := d.dgaRequest(dgaGetVideoLL, d.screenBody(0), true)
	if err != nil {
		return nil, fmt.Errorf("x11host: dga video info: %w", err)
	}
	if len(reply) < 24 {
		return nil, fmt.Errorf("x11host: short dga video reply")
	}
	offset := xgb.Get32(reply[8:])
	width := int(xgb.Get32(reply[12:]))
	bank := int(xgb.Get32(reply[16:]))
	ram := int(xgb.Get32(reply[20:])) * 1024
	if bank < ram {
		return nil, fmt.Errorf("x11host: banked framebuffer (%d of %d bytes): %w", bank, ram, host.ErrUnsupported)
	}

	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("x11host: open framebuffer: %w", err)
	}
	defer f.Close()
	mem, err := unix.Mmap(int(f.Fd()), int64(offset), ram, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("x11host: map framebuffer: %w", err)
	}
	if _, err := d.dgaRequest(dgaDirectVideo, d.screenBody(dgaDirectGraphics), false); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("x11host: enable direct video: %w", err)
	}

	w, h := int(d.screen.WidthInPixels), int(d.screen.HeightInPixels)
	pitch := width * d.format.BytesPerPixel()
	return &Framebuffer{
		d:      d,
		mem:    mem,
		pitch:  pitch,
		w:      w,
		h:      h,
		pages:  max(1, len(mem)/(pitch*h)),
		mapped: true,
	}, nil
}

// Pix returns the mapped memory.
func (fb *Framebuffer) Pix() []byte { return fb.mem }

// Pitch returns the row size.
func (fb *Framebuffer) Pitch() int { return fb.pitch }

// Format returns the root visual format.
func (fb *Framebuffer) Format() pixfmt.PixelFormat { return fb.d.format }

// Size returns the page size.
func (fb *Framebuffer) Size() (int, int) { return fb.w, fb.h }

// Pages returns how many full-screen pages fit in video memory.
func (fb *Framebuffer) Pages() int { return fb.pages }

// SetViewport scrolls the visible area to the top of page.
func (fb *Framebuffer) SetViewport(page int) error {
	if page < 0 || page >= fb.pages {
		return fmt.Errorf("x11host: viewport page %d of %d", page, fb.pages)
	}
	body := make([]byte, 12)
	xgb.Put16(body, uint16(fb.d.screenNum()))
	xgb.Put32(body[4:], 0)
	xgb.Put32(body[8:], uint32(page*fb.h))
	_, err := fb.d.dgaRequest(dgaSetViewPort, body, false)
	return err
}

// Unmap leaves direct graphics and releases the mapping.
func (fb *Framebuffer) Unmap() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.mapped {
		return nil
	}
	fb.mapped = false
	_, derr := fb.d.dgaRequest(dgaDirectVideo, fb.d.screenBody(0), false)
	if err := unix.Munmap(fb.mem); err != nil {
		return fmt.Errorf("x11host: unmap framebuffer: %w", err)
	}
	fb.mem = nil
	return derr
}
