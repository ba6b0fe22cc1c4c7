// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/ddraw/pixfmt"
)

// rowFunc writes n destination pixels to d from the source row s. xmap
// holds the byte offset in s of the pixel for each destination column; nil
// means one to one.
type rowFunc func(d, s []byte, n int, xmap []int)

type copyOp struct {
	srcKey, dstKey   *Key
	mirrorX, mirrorY bool
}

func (op copyOp) keyed() bool {
	return op.srcKey != nil || op.dstKey != nil
}

// run copies sr of src into dr of dst, stretching with 16.16 fixed-point
// steps when the sizes differ.
func (op copyOp) run(dst *View, dr pixfmt.Rect, src *View, sr pixfmt.Rect) error {
	bpp := dst.Format.BytesPerPixel()
	row, err := rowFor(bpp, op.srcKey, op.dstKey)
	if err != nil {
		return err
	}
	dw, dh := dr.Width(), dr.Height()
	sw, sh := sr.Width(), sr.Height()

	if sameMemory(dst, src) && dr.Overlaps(sr) {
		if dw == sw && dh == sh && !op.keyed() && !op.mirrorX && !op.mirrorY {
			copyOverlapping(dst, dr, sr, bpp)
			return nil
		}
		src, sr = snapshot(src, sr, bpp), pixfmt.Full(sw, sh)
	}

	var xmap []int
	if dw != sw || op.mirrorX {
		xmap = columnMap(sw, dw, bpp, op.mirrorX)
	}

	yinc := (sh << 16) / dh
	acc := 0
	prev := -1
	n := dw * bpp
	for i := 0; i < dh; i++ {
		sy := acc >> 16
		acc += yinc
		if op.mirrorY {
			sy = sh - 1 - sy
		}
		doff := (dr.Top+i)*dst.Pitch + dr.Left*bpp
		d := dst.Pix[doff : doff+n]
		if sy == prev && !op.keyed() {
			poff := doff - dst.Pitch
			copy(d, dst.Pix[poff:poff+n])
			continue
		}
		prev = sy
		soff := (sr.Top+sy)*src.Pitch + sr.Left*bpp
		row(d, src.Pix[soff:], dw, xmap)
	}
	return nil
}

// columnMap returns the source byte offset of every destination column.
func columnMap(sw, dw, bpp int, mirror bool) []int {
	xmap := make([]int, dw)
	xinc := (sw << 16) / dw
	acc := 0
	for i := range xmap {
		sx := acc >> 16
		acc += xinc
		if mirror {
			sx = sw - 1 - sx
		}
		xmap[i] = sx * bpp
	}
	return xmap
}

func sameMemory(a, b *View) bool {
	return len(a.Pix) > 0 && len(b.Pix) > 0 && &a.Pix[0] == &b.Pix[0]
}

// copyOverlapping copies within one surface, bottom-up when the
// destination lies below the source.
func copyOverlapping(v *View, dr, sr pixfmt.Rect, bpp int) {
	n := dr.Width() * bpp
	h := dr.Height()
	line := func(i int) {
		doff := (dr.Top+i)*v.Pitch + dr.Left*bpp
		soff := (sr.Top+i)*v.Pitch + sr.Left*bpp
		copy(v.Pix[doff:doff+n], v.Pix[soff:soff+n])
	}
	if dr.Top > sr.Top {
		for i := h - 1; i >= 0; i-- {
			line(i)
		}
		return
	}
	for i := 0; i < h; i++ {
		line(i)
	}
}

// snapshot copies sr of v into a tightly packed view.
func snapshot(v *View, sr pixfmt.Rect, bpp int) *View {
	w, h := sr.Width(), sr.Height()
	pitch := w * bpp
	out := &View{Pix: make([]byte, pitch*h), Pitch: pitch, Width: w, Height: h, Format: v.Format}
	for y := 0; y < h; y++ {
		soff := (sr.Top+y)*v.Pitch + sr.Left*bpp
		copy(out.Pix[y*pitch:(y+1)*pitch], v.Pix[soff:soff+pitch])
	}
	return out
}

func rowFor(bpp int, sk, dk *Key) (rowFunc, error) {
	switch bpp {
	case 1:
		if sk == nil && dk == nil {
			return copyRow8, nil
		}
		return keyRow8(sk, dk), nil
	case 2:
		if sk == nil && dk == nil {
			return copyRow16, nil
		}
		return keyRow16(sk, dk), nil
	case 3:
		if sk == nil && dk == nil {
			return copyRow24, nil
		}
		return keyRow24(sk, dk), nil
	case 4:
		if sk == nil && dk == nil {
			return copyRow32, nil
		}
		return keyRow32(sk, dk), nil
	}
	return nil, fmt.Errorf("%w: %d", pixfmt.ErrUnsupportedBpp, bpp)
}

func copyRow8(d, s []byte, n int, xmap []int) {
	if xmap == nil {
		copy(d[:n], s[:n])
		return
	}
	for i, so := range xmap[:n] {
		d[i] = s[so]
	}
}

func copyRow16(d, s []byte, n int, xmap []int) {
	if xmap == nil {
		copy(d[:2*n], s[:2*n])
		return
	}
	for i, so := range xmap[:n] {
		d[2*i], d[2*i+1] = s[so], s[so+1]
	}
}

func copyRow24(d, s []byte, n int, xmap []int) {
	if xmap == nil {
		copy(d[:3*n], s[:3*n])
		return
	}
	for i, so := range xmap[:n] {
		do := 3 * i
		d[do], d[do+1], d[do+2] = s[so], s[so+1], s[so+2]
	}
}

func copyRow32(d, s []byte, n int, xmap []int) {
	if xmap == nil {
		copy(d[:4*n], s[:4*n])
		return
	}
	for i, so := range xmap[:n] {
		binary.LittleEndian.PutUint32(d[4*i:], binary.LittleEndian.Uint32(s[so:]))
	}
}

// The keyed loops skip a pixel when the source value lies in the source
// key, or the destination value lies outside the destination key.

func keyRow8(sk, dk *Key) rowFunc {
	return func(d, s []byte, n int, xmap []int) {
		for i := 0; i < n; i++ {
			so := i
			if xmap != nil {
				so = xmap[i]
			}
			v := s[so]
			if sk != nil && sk.Contains(uint32(v)) {
				continue
			}
			if dk != nil && !dk.Contains(uint32(d[i])) {
				continue
			}
			d[i] = v
		}
	}
}

func keyRow16(sk, dk *Key) rowFunc {
	return func(d, s []byte, n int, xmap []int) {
		for i := 0; i < n; i++ {
			so := 2 * i
			if xmap != nil {
				so = xmap[i]
			}
			v := binary.LittleEndian.Uint16(s[so:])
			if sk != nil && sk.Contains(uint32(v)) {
				continue
			}
			do := 2 * i
			if dk != nil && !dk.Contains(uint32(binary.LittleEndian.Uint16(d[do:]))) {
				continue
			}
			binary.LittleEndian.PutUint16(d[do:], v)
		}
	}
}

func keyRow24(sk, dk *Key) rowFunc {
	return func(d, s []byte, n int, xmap []int) {
		for i := 0; i < n; i++ {
			so := 3 * i
			if xmap != nil {
				so = xmap[i]
			}
			v := uint32(s[so]) | uint32(s[so+1])<<8 | uint32(s[so+2])<<16
			if sk != nil && sk.Contains(v) {
				continue
			}
			do := 3 * i
			if dk != nil && !dk.Contains(uint32(d[do])|uint32(d[do+1])<<8|uint32(d[do+2])<<16) {
				continue
			}
			d[do], d[do+1], d[do+2] = byte(v), byte(v>>8), byte(v>>16)
		}
	}
}

func keyRow32(sk, dk *Key) rowFunc {
	return func(d, s []byte, n int, xmap []int) {
		for i := 0; i < n; i++ {
			so := 4 * i
			if xmap != nil {
				so = xmap[i]
			}
			v := binary.LittleEndian.Uint32(s[so:])
			if sk != nil && sk.Contains(v) {
				continue
			}
			do := 4 * i
			if dk != nil && !dk.Contains(binary.LittleEndian.Uint32(d[do:])) {
				continue
			}
			binary.LittleEndian.PutUint32(d[do:], v)
		}
	}
}
