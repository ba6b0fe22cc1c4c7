// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package rgbaframe keeps a screen as tightly packed RGBA bytes, the layout
// window toolkits and GPU texture uploads expect.
package rgbaframe

import (
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/pixfmt"
)

// Format is the host format frames accept.
var Format = pixfmt.XRGB8888

// New returns an opaque black w x h frame.
func New(w, h int) []byte {
	frame := make([]byte, w*h*4)
	for i := 3; i < len(frame); i += 4 {
		frame[i] = 0xFF
	}
	return frame
}

// Put copies the src part of an XRGB8888 image into frame at (dstX, dstY),
// clipped to the fw x fh frame, and returns the frame rectangle written.
func Put(frame []byte, fw, fh int, img host.Image, src pixfmt.Rect, dstX, dstY int) pixfmt.Rect {
	src = src.Intersect(pixfmt.Full(img.Width, img.Height))
	if dstX < 0 {
		src.Left -= dstX
		dstX = 0
	}
	if dstY < 0 {
		src.Top -= dstY
		dstY = 0
	}
	src.Right = min(src.Right, src.Left+fw-dstX)
	src.Bottom = min(src.Bottom, src.Top+fh-dstY)
	if src.Empty() {
		return pixfmt.Rect{}
	}
	w := src.Width()
	for y := src.Top; y < src.Bottom; y++ {
		s := img.Pix[y*img.Stride+src.Left*4:]
		o := ((dstY+y-src.Top)*fw + dstX) * 4
		for x := range w {
			frame[o] = s[4*x+2]
			frame[o+1] = s[4*x+1]
			frame[o+2] = s[4*x]
			frame[o+3] = 0xFF
			o += 4
		}
	}
	return pixfmt.R(dstX, dstY, dstX+w, dstY+src.Height())
}

// Region returns the r part of a fw-wide frame as packed rows.
func Region(frame []byte, fw int, r pixfmt.Rect) []byte {
	if r.Left == 0 && r.Width() == fw {
		return frame[r.Top*fw*4 : r.Bottom*fw*4]
	}
	out := make([]byte, 0, r.Width()*r.Height()*4)
	for y := r.Top; y < r.Bottom; y++ {
		out = append(out, frame[(y*fw+r.Left)*4:(y*fw+r.Right)*4]...)
	}
	return out
}
