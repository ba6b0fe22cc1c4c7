// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface manages drawable surfaces, flip chains, palettes and
// clippers on top of one display backend.
//
// Surfaces are addressed through a Handle. The Manager keeps every live
// surface in an index-based table; a handle carries the generation of its
// slot, so a handle to a destroyed surface fails with ErrInvalidHandle
// instead of touching released storage.
//
// A surface moves through
//
//	created -> locked -> unlocked -> (locked <-> unlocked)* -> destroyed
//
// Lock returns a view into the surface's storage without copying. Unlock of
// a visible surface flushes it to the display: the depth-emulation
// converter (if any) fills the host-format shadow, the result is handed to
// the host, and the host color map is refreshed from the attached palette.
//
// Pixel storage belongs to the Backend that created it. The Manager never
// frees storage itself; it detaches the surface from its flip chain first
// and then calls Storage.Release.
package surface
