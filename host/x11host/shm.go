// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11host

import "github.com/gogpu/ddraw/internal/dlog"

// ShmVersion reports the MIT-SHM version. ok is false when the extension
// is missing or a trial segment could not be attached, e.g. on a remote
// display.
func (d *Display) ShmVersion() (int, int, bool) {
	return d.shmMajor, d.shmMinor, d.shmOK
}

// trySegment attaches and releases one page.
func (d *Display) trySegment() bool {
	s, err := d.NewSegment(4096)
	if err != nil {
		dlog.Logger().Info("x11host: shared memory unusable", "error", err)
		return false
	}
	if err := s.Release(); err != nil {
		dlog.Logger().Warn("x11host: release trial segment", "error", err)
	}
	return true
}
