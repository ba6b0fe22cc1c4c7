// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pixfmt

// Pixels are stored little-endian. A 24-bit pixel occupies three bytes with
// no padding.

// Load reads the pixel at the start of p for the given byte width.
func Load(p []byte, bpp int) uint32 {
	switch bpp {
	case 1:
		return uint32(p[0])
	case 2:
		return uint32(p[0]) | uint32(p[1])<<8
	case 3:
		return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	case 4:
		return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
	}
	return 0
}

// Store writes v as one pixel of the given byte width at the start of p.
func Store(p []byte, bpp int, v uint32) {
	switch bpp {
	case 1:
		p[0] = byte(v)
	case 2:
		p[0] = byte(v)
		p[1] = byte(v >> 8)
	case 3:
		p[0] = byte(v)
		p[1] = byte(v >> 8)
		p[2] = byte(v >> 16)
	case 4:
		p[0] = byte(v)
		p[1] = byte(v >> 8)
		p[2] = byte(v >> 16)
		p[3] = byte(v >> 24)
	}
}

// Mask returns the value mask for a pixel byte width.
func Mask(bpp int) uint32 {
	if bpp >= 4 {
		return 0xFFFFFFFF
	}
	return 1<<(8*uint(bpp)) - 1
}
