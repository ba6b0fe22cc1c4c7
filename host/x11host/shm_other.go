// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !linux

package x11host

import "github.com/gogpu/ddraw/host"

const sysvShm = false

// NewSegment is only available on Linux.
func (d *Display) NewSegment(int) (host.Segment, error) {
	return nil, host.ErrUnsupported
}
