// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command ddrawdemo animates a color-keyed sprite over a banded background
// through a flip chain and saves the last frame as a BMP.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"sort"
	"strings"

	"github.com/gogpu/ddraw"
	"github.com/gogpu/ddraw/blit"
	"github.com/gogpu/ddraw/mode"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/surface"
)

func main() {
	var (
		hostName = flag.String("host", "mem", "display host: "+strings.Join(hostNames(), ", "))
		width    = flag.Int("width", 640, "display width")
		height   = flag.Int("height", 480, "display height")
		bpp      = flag.Int("bpp", 8, "display depth in bits per pixel")
		driver   = flag.String("driver", "", "backend id; empty selects the best available")
		frames   = flag.Int("frames", 120, "number of frames to draw")
		output   = flag.String("output", "demo.bmp", "output file")
		list     = flag.Bool("modes", false, "list display modes and exit")
		debug    = flag.Bool("debug", false, "log debug output to stderr")
	)
	flag.Parse()

	open, ok := hosts[*hostName]
	if !ok {
		log.Fatalf("unknown host %q", *hostName)
	}
	env, err := open(*width, *height)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *hostName, err)
	}
	defer env.display.Close()

	cfg, err := ddraw.ConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	cfg.Debug = cfg.Debug || *debug
	opts := []ddraw.Option{ddraw.WithConfig(cfg)}
	if *driver != "" {
		opts = append(opts, ddraw.WithDriver(*driver))
	}

	d := demo{width: *width, height: *height, bpp: *bpp, frames: *frames, output: *output, pace: env.pace}
	err = env.run(func() error {
		dd, err := ddraw.Open(env.display, opts...)
		if err != nil {
			return err
		}
		defer dd.Close()
		if *list {
			listModes(dd)
			return nil
		}
		return d.run(dd)
	})
	if err != nil {
		log.Fatal(err)
	}
	if !*list {
		log.Printf("Demo saved to %s (%dx%dx%d)\n", *output, *width, *height, *bpp)
	}
}

func hostNames() []string {
	names := make([]string, 0, len(hosts))
	for name := range hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func listModes(dd *ddraw.DirectDraw) {
	c := dd.Caps()
	fmt.Printf("driver %s on %s (%s)\n", c.Driver, c.Display, c.Level)
	dd.EnumDisplayModes(0, func(m mode.Descriptor) bool {
		kind := "native"
		if m.Emulated {
			kind = "emulated"
		}
		fmt.Printf("  %4dx%-4d %-22s pitch %5d  %s\n", m.Width, m.Height, m.Format, m.Pitch, kind)
		return true
	})
}

type demo struct {
	width, height, bpp int
	frames             int
	output             string
	pace               func()
}

func (d demo) run(dd *ddraw.DirectDraw) error {
	if err := dd.SetDisplayMode(d.width, d.height, d.bpp); err != nil {
		return err
	}
	primary, err := dd.CreateSurface(ddraw.SurfaceDesc{Caps: surface.Primary, BackBufferCount: 1})
	if err != nil {
		return err
	}
	desc, err := primary.Desc()
	if err != nil {
		return err
	}
	format := desc.Format
	if format.IsIndexed() {
		pal, err := dd.CreatePalette(surface.Palette8Bit, ramp332())
		if err != nil {
			return err
		}
		if err := primary.SetPalette(pal); err != nil {
			return err
		}
	}

	sprite, err := newSprite(dd, format)
	if err != nil {
		return err
	}
	back, err := primary.AttachedSurface(surface.Back)
	if err != nil {
		return err
	}

	drawn := back
	for i := 0; i < d.frames; i++ {
		if err := d.background(back, format, i); err != nil {
			return err
		}
		x := i * 4 % max(d.width-spriteSize*2, 1)
		y := d.height/2 - spriteSize + (i*3)%spriteSize
		dst := pixfmt.R(x, y, x+spriteSize*2, y+spriteSize*2)
		if dst.In(pixfmt.Full(d.width, d.height)) {
			if _, err := back.Blt(&dst, sprite, nil, blit.KeySrc, nil); err != nil {
				return err
			}
		}
		if err := primary.Flip(nil); err != nil {
			return err
		}
		drawn = back
		if back, err = primary.AttachedSurface(surface.Back); err != nil {
			return err
		}
		if d.pace != nil {
			d.pace()
		}
	}
	return drawn.SaveBMP(d.output)
}

// background fills horizontal bands whose colors shift with the frame.
func (d demo) background(s *ddraw.Surface, f pixfmt.PixelFormat, frame int) error {
	const bands = 8
	for b := 0; b < bands; b++ {
		r := pixfmt.R(0, d.height*b/bands, d.width, d.height*(b+1)/bands)
		c := pack(f, uint8(b*32), uint8(frame*2), uint8(255-b*32))
		if _, err := s.Blt(&r, nil, nil, blit.ColorFill, &blit.FX{FillColor: c}); err != nil {
			return err
		}
	}
	return nil
}

const spriteSize = 16

// newSprite draws a ring on a black background that is keyed out.
func newSprite(dd *ddraw.DirectDraw, f pixfmt.PixelFormat) (*ddraw.Surface, error) {
	s, err := dd.CreateSurface(ddraw.SurfaceDesc{Width: spriteSize, Height: spriteSize, Format: f})
	if err != nil {
		return nil, err
	}
	lr, err := s.Lock(nil)
	if err != nil {
		return nil, err
	}
	bpp := f.BytesPerPixel()
	ring := pack(f, 0xFF, 0xFF, 0)
	const c = spriteSize / 2
	for y := 0; y < spriteSize; y++ {
		for x := 0; x < spriteSize; x++ {
			dx, dy := x-c, y-c
			v := uint32(0)
			if d := dx*dx + dy*dy; d < c*c && d > (c-4)*(c-4) {
				v = ring
			}
			pixfmt.Store(lr.Pix[y*lr.Pitch+x*bpp:], bpp, v)
		}
	}
	if err := s.Unlock(); err != nil {
		return nil, err
	}
	return s, s.SetColorKey(surface.SrcKey, &surface.ColorKey{})
}

// ramp332 is a palette with 3 bits of red and green and 2 of blue.
func ramp332() []color.RGBA {
	pal := make([]color.RGBA, 256)
	for i := range pal {
		pal[i] = color.RGBA{
			R: uint8((i >> 5) * 255 / 7),
			G: uint8((i >> 2 & 7) * 255 / 7),
			B: uint8((i & 3) * 255 / 3),
			A: 0xFF,
		}
	}
	return pal
}

// pack returns the pixel value of a color, an index into ramp332 for
// indexed formats.
func pack(f pixfmt.PixelFormat, r, g, b uint8) uint32 {
	if f.IsIndexed() {
		return uint32(r>>5)<<5 | uint32(g>>5)<<2 | uint32(b>>6)
	}
	return f.Pack(r, g, b, 0xFF)
}
