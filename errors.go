// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ddraw

import (
	"errors"

	"github.com/gogpu/ddraw/blit"
	"github.com/gogpu/ddraw/driver"
	"github.com/gogpu/ddraw/mode"
	"github.com/gogpu/ddraw/pixfmt"
	"github.com/gogpu/ddraw/surface"
)

// Error kinds. Errors returned by this package and its sub-packages wrap
// one of these; test with errors.Is.
var (
	// ErrUnsupportedMode: no native or emulated pixel format matches.
	ErrUnsupportedMode = mode.ErrUnsupportedMode

	// ErrBackendUnavailable: no backend passed its probe, or the requested
	// one cannot run.
	ErrBackendUnavailable = driver.ErrBackendUnavailable

	// ErrOutOfMemory: surface storage could not be allocated.
	ErrOutOfMemory = surface.ErrOutOfMemory

	// ErrInvalidRect: a rectangle has negative coordinates or lies outside
	// its surface.
	ErrInvalidRect = pixfmt.ErrInvalidRect

	// ErrUnsupportedBltFlag: a blit flag combination has no implementation.
	ErrUnsupportedBltFlag = blit.ErrUnsupportedBltFlag

	// ErrUnsupportedBpp: no loop exists for the pixel byte width.
	ErrUnsupportedBpp = pixfmt.ErrUnsupportedBpp

	// ErrClosed is returned by a DirectDraw after Close.
	ErrClosed = errors.New("ddraw: closed")
)
