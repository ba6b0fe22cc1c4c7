// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package driver

import (
	"fmt"

	"github.com/gogpu/ddraw/host"
)

// SetModeOn switches d to m using the descriptor's mode setter, or the
// display's own when the descriptor has none. A display that cannot switch
// modes accepts m only when it already matches the screen size.
func (desc Descriptor) SetModeOn(d host.Display, m host.Mode) error {
	if desc.SetMode != nil {
		return desc.SetMode(d, m)
	}
	if ms, ok := d.(host.ModeSetter); ok {
		return ms.SetMode(m)
	}
	w, h := d.Size()
	if w == m.Width && h == m.Height {
		return nil
	}
	return fmt.Errorf("driver: %s cannot switch %s to %dx%d: %w", desc.ID, d.Name(), m.Width, m.Height, host.ErrUnsupported)
}

// RestoreMode undoes SetModeOn.
func (desc Descriptor) RestoreMode(d host.Display) error {
	if ms, ok := d.(host.ModeSetter); ok {
		return ms.RestoreMode()
	}
	return nil
}
