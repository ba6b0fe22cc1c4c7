// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package ddraw provides hardware-abstracted 2D display surfaces and a blit
// engine.
//
// # Overview
//
// ddraw negotiates pixel formats against what the host display actually
// supports, picks one of several mutually exclusive display-access
// backends at runtime, manages drawable surfaces and their flip chains,
// and copies pixels between them. When a requested color depth is not
// available natively it is emulated: surfaces keep the requested format
// and are converted to the host format on their way to the screen.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/ddraw"
//	    "github.com/gogpu/ddraw/host/x11host"
//	    "github.com/gogpu/ddraw/surface"
//	)
//
//	disp, err := x11host.Open(x11host.Config{Width: 640, Height: 480})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer disp.Close()
//
//	dd, err := ddraw.Open(disp)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dd.Close()
//
//	// 8 bpp is emulated on a true-color display.
//	if err := dd.SetDisplayMode(640, 480, 8); err != nil {
//	    log.Fatal(err)
//	}
//	primary, err := dd.CreateSurface(ddraw.SurfaceDesc{
//	    Caps:            surface.Primary,
//	    BackBufferCount: 1,
//	})
//
// # Backends
//
// Backends are registered with a [driver.Registry] and chosen by
// priority, highest first, among those whose probe passes:
//   - xshm: the shared-memory image transport
//   - dga2: direct framebuffer access with page flipping
//   - dga: direct framebuffer access
//   - user: plain image transfers, always available
//
// Only one backend can be active per registry. Select one explicitly with
// [WithDriver] or the DDRAW_DRIVER environment variable.
//
// # Hosts
//
// A host adapts a concrete display to [host.Display]: host/x11host talks to
// an X server, host/ebitenhost presents through an ebiten window,
// host/gpuhost uploads frames to a gpucontext texture and host/memhost
// keeps the screen in memory.
//
// # Concurrency
//
// Operations run synchronously on the calling goroutine. Surfaces are not
// safe for concurrent use. Lock blocks only while a transfer to the display
// still reads the surface.
package ddraw
