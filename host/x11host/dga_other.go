// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !linux

package x11host

import "github.com/gogpu/ddraw/host"

const dgaMapping = false

// MapFramebuffer is only available on Linux.
func (d *Display) MapFramebuffer() (host.Framebuffer, error) {
	return nil, host.ErrUnsupported
}
