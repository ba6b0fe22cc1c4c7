// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
)

// Errors.
var (
	// ErrOutOfMemory is returned when storage allocation fails.
	ErrOutOfMemory = errors.New("surface: out of memory")

	// ErrLocked is returned when a locked surface is locked again, or
	// flipped or destroyed while locked.
	ErrLocked = errors.New("surface: surface is locked")

	// ErrNotLocked is returned by Unlock on an unlocked surface.
	ErrNotLocked = errors.New("surface: surface is not locked")

	// ErrInvalidHandle is returned for a handle whose surface is gone.
	ErrInvalidHandle = errors.New("surface: invalid handle")

	// ErrNotFlippable is returned by Flip when the surface or target is not
	// a flippable member of a chain.
	ErrNotFlippable = errors.New("surface: not flippable")

	// ErrNotAttached is returned by Detach for a surface outside the chain.
	ErrNotAttached = errors.New("surface: not attached")

	// ErrAlreadyAttached is returned by Attach for a surface that already
	// belongs to a chain.
	ErrAlreadyAttached = errors.New("surface: already attached")

	// ErrIncompatible is returned when surfaces of different size or
	// format are chained, or a surface description does not fit.
	ErrIncompatible = errors.New("surface: incompatible surface")

	// ErrInvalidPalette is returned for a bad palette size flag or an
	// entry range outside 0..255.
	ErrInvalidPalette = errors.New("surface: invalid palette")
)

// OpError records a failed surface operation.
type OpError struct {
	Op     string
	Handle Handle
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("surface: %s %v: %v", e.Op, e.Handle, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opErr(op string, h Handle, err error) error {
	return &OpError{Op: op, Handle: h, Err: err}
}
