// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package convert

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/ddraw/pixfmt"
)

// Row loops are specialized per pixel byte width. 24-bit pixels are packed
// three bytes at a time and get their own loops.

type rowReader func(src []byte, out []uint32)

type rowWriter func(dst []byte, in []uint32)

func reader(bpp int) (rowReader, error) {
	switch bpp {
	case 1:
		return read8, nil
	case 2:
		return read16, nil
	case 3:
		return read24, nil
	case 4:
		return read32, nil
	}
	return nil, fmt.Errorf("%w: %d", pixfmt.ErrUnsupportedBpp, bpp)
}

func writer(bpp int) (rowWriter, error) {
	switch bpp {
	case 1:
		return write8, nil
	case 2:
		return write16, nil
	case 3:
		return write24, nil
	case 4:
		return write32, nil
	}
	return nil, fmt.Errorf("%w: %d", pixfmt.ErrUnsupportedBpp, bpp)
}

func read8(src []byte, out []uint32) {
	for i := range out {
		out[i] = uint32(src[i])
	}
}

func read16(src []byte, out []uint32) {
	for i := range out {
		out[i] = uint32(binary.LittleEndian.Uint16(src[2*i:]))
	}
}

func read24(src []byte, out []uint32) {
	for i := range out {
		p := src[3*i : 3*i+3]
		out[i] = uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	}
}

func read32(src []byte, out []uint32) {
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(src[4*i:])
	}
}

func write8(dst []byte, in []uint32) {
	for i, v := range in {
		dst[i] = byte(v)
	}
}

func write16(dst []byte, in []uint32) {
	for i, v := range in {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
	}
}

func write24(dst []byte, in []uint32) {
	for i, v := range in {
		p := dst[3*i : 3*i+3]
		p[0] = byte(v)
		p[1] = byte(v >> 8)
		p[2] = byte(v >> 16)
	}
}

func write32(dst []byte, in []uint32) {
	for i, v := range in {
		binary.LittleEndian.PutUint32(dst[4*i:], v)
	}
}

// checkBuf verifies that buf can hold h rows of w pixels at the given pitch.
func checkBuf(name string, buf []byte, pitch, bpp, w, h int) error {
	if h == 0 || w == 0 {
		return nil
	}
	if need := (h-1)*pitch + w*bpp; len(buf) < need {
		return fmt.Errorf("convert: %s buffer too small: %d < %d", name, len(buf), need)
	}
	return nil
}

// mapRows reads each source row, maps every pixel with fn and writes the
// result to the destination row.
func mapRows(dst []byte, dstPitch, dstBpp int, src []byte, srcPitch, srcBpp int, w, h int, fn func(uint32) uint32) error {
	rd, err := reader(srcBpp)
	if err != nil {
		return err
	}
	wr, err := writer(dstBpp)
	if err != nil {
		return err
	}
	if err := checkBuf("source", src, srcPitch, srcBpp, w, h); err != nil {
		return err
	}
	if err := checkBuf("destination", dst, dstPitch, dstBpp, w, h); err != nil {
		return err
	}
	row := make([]uint32, w)
	for y := 0; y < h; y++ {
		rd(src[y*srcPitch:], row)
		for i, v := range row {
			row[i] = fn(v)
		}
		wr(dst[y*dstPitch:], row)
	}
	return nil
}
